package spectral

import (
	"fmt"
)

// NumericalError reports input a decomposition cannot accept, such as a
// matrix that is not square or not symmetric.
type NumericalError struct {
	Op     string
	Reason string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("spectral: %s: %s", e.Op, e.Reason)
}

// SingularMatrixError reports a matrix that could not be inverted. Err is the
// underlying error from the linear algebra backend, if any.
type SingularMatrixError struct {
	Op  string
	Err error
}

func (e *SingularMatrixError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("spectral: %s: matrix is singular", e.Op)
	}
	return fmt.Sprintf("spectral: %s: matrix is singular: %s", e.Op, e.Err)
}

func (e *SingularMatrixError) Unwrap() error { return e.Err }
