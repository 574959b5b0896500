package concurrency

import (
	"sync"
	"time"
)

// SlowService represents a dependency that might be called concurrently.
type SlowService interface {
	DoA(id int) string
	DoB(id int) string
}

// RunConcurrent calls DoA and DoB in separate goroutines.
// It purposefully introduces a small delay for DoB so that it arrives after
// the test has started waiting.
func RunConcurrent(svc SlowService, id int) []string {
	const (
		numTasks = 2
		delay    = 50
	)

	var wg sync.WaitGroup

	results := make([]string, numTasks)

	wg.Add(numTasks)

	go func() {
		defer wg.Done()
		time.Sleep(delay * time.Millisecond)

		results[1] = svc.DoB(id)
	}()

	go func() {
		defer wg.Done()

		results[0] = svc.DoA(id)
	}()

	wg.Wait()

	return results
}

// Poll calls DoA for each id, one at a time, in the background.
func Poll(svc SlowService, ids ...int) {
	go func() {
		for _, id := range ids {
			time.Sleep(time.Millisecond)
			svc.DoA(id)
		}
	}()
}
