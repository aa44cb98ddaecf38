// Package dataset holds the immutable respondent record set and the pure
// derivations (selection, filtering, derived columns, groupings) the
// analysis pipeline builds on.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// RowKey identifies a respondent by its 1-based data record number in the
// source file. Keys survive every derivation so derived matrices can be
// joined back to auxiliary variables.
type RowKey int

// RecordSet is an ordered, deduplicated set of respondent rows. It is never
// mutated after construction; derivations return new record sets.
type RecordSet struct {
	name       string
	columns    []string
	index      map[string]int
	rows       [][]string
	keys       []RowKey
	duplicates int
}

func newRecordSet(name string, columns []string) (*RecordSet, error) {
	rs := &RecordSet{name: name, columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("header column %d has no name", i+1)
		}
		if _, dup := rs.index[c]; dup {
			return nil, fmt.Errorf("duplicate header column %q", c)
		}
		rs.index[c] = i
	}
	return rs, nil
}

// New builds a record set from in-memory rows. Keys are assigned 1..n in
// order. Rows shorter than the header are padded with empty (missing) cells.
func New(name string, columns []string, rows [][]string) (*RecordSet, error) {
	rs, err := newRecordSet(name, append([]string(nil), columns...))
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) > len(columns) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(r), len(columns))
		}
		row := make([]string, len(columns))
		copy(row, r)
		rs.rows = append(rs.rows, row)
		rs.keys = append(rs.keys, RowKey(i+1))
	}
	return rs, nil
}

// FromColumns builds a record set from named columns of equal length.
func FromColumns(name string, columns []string, values map[string][]string) (*RecordSet, error) {
	n := -1
	for _, c := range columns {
		v, ok := values[c]
		if !ok {
			return nil, fmt.Errorf("column %q: %w", c, ErrUnknownColumn)
		}
		if n >= 0 && len(v) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", c, len(v), n)
		}
		n = len(v)
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(columns))
		for j, c := range columns {
			rows[i][j] = values[c][i]
		}
	}
	return New(name, columns, rows)
}

func (rs *RecordSet) derive(rows [][]string, keys []RowKey) *RecordSet {
	return &RecordSet{
		name:       rs.name,
		columns:    rs.columns,
		index:      rs.index,
		rows:       rows,
		keys:       keys,
		duplicates: rs.duplicates,
	}
}

// Name returns the source name (file base name) of the record set.
func (rs *RecordSet) Name() string { return rs.name }

// Len returns the number of respondent rows.
func (rs *RecordSet) Len() int { return len(rs.rows) }

// Duplicates returns how many duplicate rows were removed at load time.
func (rs *RecordSet) Duplicates() int { return rs.duplicates }

// Columns returns a copy of the column names in file order.
func (rs *RecordSet) Columns() []string { return append([]string(nil), rs.columns...) }

// Has reports whether the named column exists.
func (rs *RecordSet) Has(col string) bool {
	_, ok := rs.index[col]
	return ok
}

// Key returns the row key of row i.
func (rs *RecordSet) Key(i int) RowKey { return rs.keys[i] }

// Keys returns a copy of all row keys in row order.
func (rs *RecordSet) Keys() []RowKey { return append([]RowKey(nil), rs.keys...) }

// Row returns a copy of row i.
func (rs *RecordSet) Row(i int) []string { return append([]string(nil), rs.rows[i]...) }

// Value returns the raw cell of row i in column col.
func (rs *RecordSet) Value(i int, col string) (string, error) {
	j, ok := rs.index[col]
	if !ok {
		return "", fmt.Errorf("column %q: %w", col, ErrUnknownColumn)
	}
	return rs.rows[i][j], nil
}

// Column returns a copy of the raw cells of col in row order.
func (rs *RecordSet) Column(col string) ([]string, error) {
	j, ok := rs.index[col]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", col, ErrUnknownColumn)
	}
	out := make([]string, len(rs.rows))
	for i, r := range rs.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Match returns, in file order, the columns whose name contains pattern.
func (rs *RecordSet) Match(pattern string) []string {
	if pattern == "" {
		return nil
	}
	var out []string
	for _, c := range rs.columns {
		if strings.Contains(c, pattern) {
			out = append(out, c)
		}
	}
	return out
}

// Filter returns the rows for which keep returns true. Keys are preserved.
func (rs *RecordSet) Filter(keep func(i int) bool) *RecordSet {
	var rows [][]string
	var keys []RowKey
	for i := range rs.rows {
		if keep(i) {
			rows = append(rows, rs.rows[i])
			keys = append(keys, rs.keys[i])
		}
	}
	return rs.derive(rows, keys)
}

// Select returns a record set restricted to cols, in the given order.
func (rs *RecordSet) Select(cols ...string) (*RecordSet, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := rs.index[c]
		if !ok {
			return nil, fmt.Errorf("select %q: %w", c, ErrUnknownColumn)
		}
		idx[k] = j
	}
	out, err := newRecordSet(rs.name, append([]string(nil), cols...))
	if err != nil {
		return nil, err
	}
	out.duplicates = rs.duplicates
	out.keys = append([]RowKey(nil), rs.keys...)
	out.rows = make([][]string, len(rs.rows))
	for i, r := range rs.rows {
		row := make([]string, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

// Row is a read-only view of one respondent passed to Derive.
type Row struct {
	rs *RecordSet
	i  int
}

// Get returns the raw cell in col, or "" when the column does not exist.
func (r Row) Get(col string) string {
	j, ok := r.rs.index[col]
	if !ok {
		return ""
	}
	return r.rs.rows[r.i][j]
}

// Key returns the row key.
func (r Row) Key() RowKey { return r.rs.keys[r.i] }

// Derive returns a new record set with an extra column computed from each
// row. The receiver is left untouched.
func (rs *RecordSet) Derive(name string, fn func(Row) string) (*RecordSet, error) {
	if name == "" {
		return nil, errors.New("derive: empty column name")
	}
	if _, exists := rs.index[name]; exists {
		return nil, fmt.Errorf("derive: column %q already exists", name)
	}
	cols := append(append([]string(nil), rs.columns...), name)
	out, err := newRecordSet(rs.name, cols)
	if err != nil {
		return nil, err
	}
	out.duplicates = rs.duplicates
	out.keys = append([]RowKey(nil), rs.keys...)
	out.rows = make([][]string, len(rs.rows))
	for i, r := range rs.rows {
		row := make([]string, len(cols))
		copy(row, r)
		row[len(cols)-1] = fn(Row{rs: rs, i: i})
		out.rows[i] = row
	}
	return out, nil
}

// Grouping is an auxiliary categorical variable keyed by respondent.
type Grouping struct {
	Name   string
	labels map[RowKey]string
}

// Grouping extracts col as an auxiliary grouping. Missing cells are labelled
// "NA" so that every respondent carries a label.
func (rs *RecordSet) Grouping(col string) (Grouping, error) {
	j, ok := rs.index[col]
	if !ok {
		return Grouping{}, fmt.Errorf("grouping %q: %w", col, ErrUnknownColumn)
	}
	g := Grouping{Name: col, labels: make(map[RowKey]string, len(rs.rows))}
	for i, r := range rs.rows {
		v := strings.TrimSpace(r[j])
		if IsMissing(v) {
			v = "NA"
		}
		g.labels[rs.keys[i]] = v
	}
	return g, nil
}

// Label returns the label of key and whether the key is known.
func (g Grouping) Label(key RowKey) (string, bool) {
	v, ok := g.labels[key]
	return v, ok
}

// Len returns the number of labelled respondents.
func (g Grouping) Len() int { return len(g.labels) }
