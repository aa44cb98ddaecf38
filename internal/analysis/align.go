package analysis

import (
	"fmt"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
)

// AlignmentError reports respondents of a derived matrix that an auxiliary
// grouping has no label for.
type AlignmentError struct {
	Grouping string
	Rows     int
	Missing  []dataset.RowKey
}

func (e *AlignmentError) Error() string {
	show := e.Missing
	if len(show) > 5 {
		show = show[:5]
	}
	return fmt.Sprintf("align %s: %d of %d rows have no label (keys %v)", e.Grouping, len(e.Missing), e.Rows, show)
}

// Align returns the label of every key, in key order. Labels are joined by
// row key; a key the grouping does not know is an error, never a truncation.
func Align(keys []dataset.RowKey, g dataset.Grouping) ([]string, error) {
	out := make([]string, len(keys))
	var missing []dataset.RowKey
	for i, k := range keys {
		l, ok := g.Label(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[i] = l
	}
	if len(missing) > 0 {
		return nil, &AlignmentError{Grouping: g.Name, Rows: len(keys), Missing: missing}
	}
	return out, nil
}
