package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a column name is not part of the record set.
var ErrUnknownColumn = errors.New("unknown column")

// LoadError is a fatal data error raised while reading a survey file. Line is
// the 1-based line in the source file (0 when not known) and Column names the
// offending column when it can be determined.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	msg := "load " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
