package analysis

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/dataset"
)

// Bin derives a class column from a numeric one. Cells that are missing or
// not numeric stay missing in the derived column.
func Bin(rs *dataset.RecordSet, spec config.BinSpec) (*dataset.RecordSet, error) {
	if !rs.Has(spec.Column) {
		return nil, fmt.Errorf("derive %s: column %q: %w", spec.Name, spec.Column, dataset.ErrUnknownColumn)
	}
	if len(spec.Labels) != len(spec.Edges)+1 {
		return nil, fmt.Errorf("derive %s: need %d labels for %d edges", spec.Name, len(spec.Edges)+1, len(spec.Edges))
	}
	return rs.Derive(spec.Name, func(r dataset.Row) string {
		v := r.Get(spec.Column)
		if dataset.IsMissing(v) {
			return ""
		}
		x, ok := parseNumeric(v)
		if !ok {
			return ""
		}
		// First edge strictly greater than x.
		i := sort.Search(len(spec.Edges), func(i int) bool { return spec.Edges[i] > x })
		return spec.Labels[i]
	})
}
