package noise

import "fmt"

// PreconditionError reports use of a field that was never seeded.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("noise: %s: %s", e.Op, e.Reason)
}
