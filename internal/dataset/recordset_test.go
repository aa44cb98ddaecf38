package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *RecordSet {
	t.Helper()
	rs, err := New("sample", []string{"Age", "Pertinence_A", "Pertinence_B", "Utilisation_A"}, [][]string{
		{"20-25", "pdtd", "tafd", "Neutre"},
		{"26-30", "Neutre", "", "tafd"},
		{"", "tafd", "Neutre"},
	})
	require.NoError(t, err)
	return rs
}

func TestMatchKeepsFileOrder(t *testing.T) {
	rs := sample(t)
	require.Equal(t, []string{"Pertinence_A", "Pertinence_B"}, rs.Match("Pertinence"))
	require.Empty(t, rs.Match("Necessite"))
	require.Empty(t, rs.Match(""))
}

func TestNewPadsShortRows(t *testing.T) {
	rs := sample(t)
	v, err := rs.Value(2, "Utilisation_A")
	require.NoError(t, err)
	require.Equal(t, "", v)
}

func TestFilterPreservesKeys(t *testing.T) {
	rs := sample(t)
	sub := rs.Filter(func(i int) bool { return i != 1 })
	require.Equal(t, 2, sub.Len())
	require.Equal(t, []RowKey{1, 3}, sub.Keys())
	require.Equal(t, 3, rs.Len(), "receiver must not change")
}

func TestDeriveIsPure(t *testing.T) {
	rs := sample(t)
	out, err := rs.Derive("Jeune", func(r Row) string {
		if r.Get("Age") == "20-25" {
			return "oui"
		}
		return "non"
	})
	require.NoError(t, err)
	require.False(t, rs.Has("Jeune"))
	require.True(t, out.Has("Jeune"))
	col, err := out.Column("Jeune")
	require.NoError(t, err)
	require.Equal(t, []string{"oui", "non", "non"}, col)

	_, err = out.Derive("Jeune", func(Row) string { return "" })
	require.ErrorContains(t, err, "already exists")
}

func TestSelectUnknownColumn(t *testing.T) {
	rs := sample(t)
	_, err := rs.Select("Age", "Salaire")
	require.True(t, errors.Is(err, ErrUnknownColumn))

	sel, err := rs.Select("Utilisation_A", "Age")
	require.NoError(t, err)
	require.Equal(t, []string{"Utilisation_A", "Age"}, sel.Columns())
	require.Equal(t, []string{"Neutre", "20-25"}, sel.Row(0))
}

func TestGroupingLabelsMissingAsNA(t *testing.T) {
	rs := sample(t)
	g, err := rs.Grouping("Age")
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())
	lbl, ok := g.Label(3)
	require.True(t, ok)
	require.Equal(t, "NA", lbl)
	_, ok = g.Label(99)
	require.False(t, ok)
}

func TestFromColumnsLengthMismatch(t *testing.T) {
	_, err := FromColumns("x", []string{"A", "B"}, map[string][]string{
		"A": {"1", "2"},
		"B": {"1"},
	})
	require.ErrorContains(t, err, `column "B" has 1 values, want 2`)
}
