package ordering

// Service is a three-step workflow dependency.
type Service interface {
	OperationA(id int) error
	OperationB(id int) error
	OperationC(id int) error
}

// Run performs A, then B, then C for the same id, stopping at the first error.
func Run(svc Service, id int) error {
	for _, step := range []func(int) error{svc.OperationA, svc.OperationB, svc.OperationC} {
		if err := step(id); err != nil {
			return err
		}
	}

	return nil
}
