package factor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
)

// Table is a two-way contingency table. Counts[i][j] is the number of
// respondents with row level Rows[i] and column level Cols[j]. A Table is
// never modified after construction.
type Table struct {
	RowVar, ColVar string
	Rows, Cols     []string
	Counts         [][]int
}

// NewTable validates and copies an explicit table.
func NewTable(rows, cols []string, counts [][]int) (*Table, error) {
	if len(counts) != len(rows) {
		return nil, fmt.Errorf("table: %d count rows for %d row levels", len(counts), len(rows))
	}
	if err := uniqueLabels("row", rows); err != nil {
		return nil, err
	}
	if err := uniqueLabels("column", cols); err != nil {
		return nil, err
	}
	t := &Table{
		Rows:   append([]string(nil), rows...),
		Cols:   append([]string(nil), cols...),
		Counts: make([][]int, len(rows)),
	}
	for i, r := range counts {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("table: row %q has %d counts for %d column levels", rows[i], len(r), len(cols))
		}
		for j, v := range r {
			if v < 0 {
				return nil, fmt.Errorf("table: negative count at (%s, %s)", rows[i], cols[j])
			}
		}
		t.Counts[i] = append([]int(nil), r...)
	}
	return t, nil
}

func uniqueLabels(kind string, labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			return fmt.Errorf("table: duplicate %s level %q", kind, l)
		}
		seen[l] = struct{}{}
	}
	return nil
}

// CrossTab counts the pairs (a[i], b[i]). Respondents with a missing label in
// either vector are left out and counted in excluded. Levels are sorted.
func CrossTab(a, b []string) (t *Table, excluded int, err error) {
	if len(a) != len(b) {
		return nil, 0, fmt.Errorf("crosstab: vectors have %d and %d labels", len(a), len(b))
	}
	rowIdx, colIdx := map[string]int{}, map[string]int{}
	type pair struct{ r, c string }
	var pairs []pair
	for i := range a {
		if dataset.IsMissing(a[i]) || dataset.IsMissing(b[i]) {
			excluded++
			continue
		}
		p := pair{strings.TrimSpace(a[i]), strings.TrimSpace(b[i])}
		rowIdx[p.r] = 0
		colIdx[p.c] = 0
		pairs = append(pairs, p)
	}
	rows := sortedKeys(rowIdx)
	cols := sortedKeys(colIdx)
	for i, r := range rows {
		rowIdx[r] = i
	}
	for j, c := range cols {
		colIdx[c] = j
	}
	counts := make([][]int, len(rows))
	for i := range counts {
		counts[i] = make([]int, len(cols))
	}
	for _, p := range pairs {
		counts[rowIdx[p.r]][colIdx[p.c]]++
	}
	t, err = NewTable(rows, cols, counts)
	return t, excluded, err
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RowSums returns the row margins.
func (t *Table) RowSums() []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Counts {
		for _, v := range r {
			out[i] += v
		}
	}
	return out
}

// ColSums returns the column margins.
func (t *Table) ColSums() []int {
	out := make([]int, len(t.Cols))
	for _, r := range t.Counts {
		for j, v := range r {
			out[j] += v
		}
	}
	return out
}

// Total returns the grand total.
func (t *Table) Total() int {
	var n int
	for _, r := range t.Counts {
		for _, v := range r {
			n += v
		}
	}
	return n
}

// RowProfiles returns count[i][j] / rowSum[i]. Rows with a zero margin are NaN.
func (t *Table) RowProfiles() [][]float64 {
	sums := t.RowSums()
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Counts {
		out[i] = make([]float64, len(r))
		for j, v := range r {
			if sums[i] == 0 {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = float64(v) / float64(sums[i])
		}
	}
	return out
}

// ColProfiles returns count[i][j] / colSum[j], laid out like Counts. Columns
// with a zero margin are NaN.
func (t *Table) ColProfiles() [][]float64 {
	sums := t.ColSums()
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Counts {
		out[i] = make([]float64, len(r))
		for j, v := range r {
			if sums[j] == 0 {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = float64(v) / float64(sums[j])
		}
	}
	return out
}

// Expected returns the counts expected under independence.
func (t *Table) Expected() [][]float64 {
	rs, cs, n := t.RowSums(), t.ColSums(), float64(t.Total())
	out := make([][]float64, len(t.Rows))
	for i := range out {
		out[i] = make([]float64, len(t.Cols))
		if n == 0 {
			continue
		}
		for j := range out[i] {
			out[i][j] = float64(rs[i]) * float64(cs[j]) / n
		}
	}
	return out
}

// Trim returns a copy without zero-margin rows and columns, plus the labels
// that were removed.
func (t *Table) Trim() (trimmed *Table, removedRows, removedCols []string) {
	rs, cs := t.RowSums(), t.ColSums()
	var keepR, keepC []int
	for i, s := range rs {
		if s > 0 {
			keepR = append(keepR, i)
		} else {
			removedRows = append(removedRows, t.Rows[i])
		}
	}
	for j, s := range cs {
		if s > 0 {
			keepC = append(keepC, j)
		} else {
			removedCols = append(removedCols, t.Cols[j])
		}
	}
	trimmed = &Table{RowVar: t.RowVar, ColVar: t.ColVar}
	for _, j := range keepC {
		trimmed.Cols = append(trimmed.Cols, t.Cols[j])
	}
	for _, i := range keepR {
		trimmed.Rows = append(trimmed.Rows, t.Rows[i])
		row := make([]int, len(keepC))
		for k, j := range keepC {
			row[k] = t.Counts[i][j]
		}
		trimmed.Counts = append(trimmed.Counts, row)
	}
	return trimmed, removedRows, removedCols
}

// ChiSquare returns Pearson's chi-square statistic of independence, its
// degrees of freedom and the upper-tail p-value. Cells with a zero expected
// count must have been trimmed first.
func (t *Table) ChiSquare() (chi2 float64, df int, p float64, err error) {
	if len(t.Rows) < 2 || len(t.Cols) < 2 {
		return 0, 0, math.NaN(), ErrDegenerateTable
	}
	exp := t.Expected()
	for i, r := range t.Counts {
		for j, v := range r {
			e := exp[i][j]
			if e == 0 {
				return 0, 0, math.NaN(), errors.New("chi-square: zero expected count; trim the table first")
			}
			d := float64(v) - e
			chi2 += d * d / e
		}
	}
	df = (len(t.Rows) - 1) * (len(t.Cols) - 1)
	p = distuv.ChiSquared{K: float64(df)}.Survival(chi2)
	return chi2, df, p, nil
}
