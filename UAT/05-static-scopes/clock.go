// Package clock shows a package-level function replaced by a stand-in for tests.
package clock

import (
	"context"
	"time"
)

// Now is the package's time source. Tests swap it for a stand-in.
//
//nolint:gochecknoglobals // seam for tests
var Now = func(context.Context) time.Time { return time.Now() }

// Stamp labels msg with the current hour.
func Stamp(ctx context.Context, msg string) string {
	return Now(ctx).Format("15h") + " " + msg
}
