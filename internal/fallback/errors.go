package fallback

import (
	"errors"
	"fmt"
)

// ErrReentrancy is returned when the triggering capability key is still
// present after key reduction. The reduction in Handle makes this
// unreachable; hitting it means the dispatch invariants are broken.
var ErrReentrancy = errors.New("triggering capability key still active after reduction")

// TransformError reports that a contract could not produce a valid
// representation for an input tensor. Fatal for the enclosing call.
type TransformError struct {
	Op  string
	Arg int
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform arg %d of %s: %v", e.Arg, e.Op, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// ReconciliationError reports that a contract could not write a produced
// result back into the caller's output tensor. Fatal for the enclosing call.
type ReconciliationError struct {
	Op     string
	Result int
	Err    error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile result %d of %s: %v", e.Result, e.Op, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
