package moca

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fatal decode errors. A poll cycle returning one of these yields no report.
var (
	ErrMalformedTopology = errors.New("malformed topology dump")
)

// DecodeError is a recoverable decode failure scoped to a single matrix
// cell. The field decoder returns it together with a zero field so that the
// caller can log the anomaly without aborting the row or the matrix.
type DecodeError struct {
	Word int
	Err  error
}

// Error implements the error interface.
func (e DecodeError) Error() string {
	return fmt.Sprintf("decode word %d: %s", e.Word, e.Err)
}

// Unwrap returns the wrapped error.
func (e DecodeError) Unwrap() error {
	return e.Err
}
