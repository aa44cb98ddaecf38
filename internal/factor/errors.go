package factor

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewVariables is returned when fewer than two usable columns remain.
	ErrTooFewVariables = errors.New("too few non-degenerate variables")
	// ErrTooFewObservations is returned when fewer than two respondents remain.
	ErrTooFewObservations = errors.New("too few observations")
	// ErrTooFewLevels is returned when an indicator matrix has no dimension left.
	ErrTooFewLevels = errors.New("too few category levels")
	// ErrDegenerateTable is returned when a contingency table shrinks below 2x2.
	ErrDegenerateTable = errors.New("contingency table smaller than 2x2")
	// ErrDecomposition is returned when the singular value decomposition fails.
	ErrDecomposition = errors.New("singular value decomposition failed")
)

// DegenerateError reports a decomposition that cannot be computed on its input.
type DegenerateError struct {
	Method string
	Have   int
	Need   int
	Err    error
}

func (e *DegenerateError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("%s: %v (have %d, need at least %d)", e.Method, e.Err, e.Have, e.Need)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *DegenerateError) Unwrap() error { return e.Err }
