package factor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const tol = 1e-9

// standardize centres the columns of x and scales them to unit population variance.
func standardize(cols ...[]float64) *mat.Dense {
	n := len(cols[0])
	z := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		mean := stat.Mean(c, nil)
		std := stat.PopStdDev(c, nil)
		for i, v := range c {
			z.Set(i, j, (v-mean)/std)
		}
	}
	return z
}

func TestPCATwoItemScenario(t *testing.T) {
	z := standardize([]float64{1, 2, 3, 1}, []float64{3, 3, 2, 1})
	res, err := PCA(z, []string{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Components())

	r := 1.0 / 2.75
	require.InDelta(t, 1+r, res.Eigenvalues[0], tol)
	require.InDelta(t, 1-r, res.Eigenvalues[1], tol)
	require.InDelta(t, 1.0, res.Cumulative[1], tol)
	require.InDelta(t, 1.0, res.Explained[0]+res.Explained[1], tol)

	want := math.Sqrt((1 + r) / 2)
	require.InDelta(t, want, res.Loadings.At(0, 0), 1e-9)
	require.InDelta(t, want, res.Loadings.At(1, 0), 1e-9)
	require.InDelta(t, 50, res.Contrib.At(0, 0), 1e-9)
	for j := 0; j < 2; j++ {
		require.InDelta(t, 1.0, res.Cos2.At(j, 0)+res.Cos2.At(j, 1), 1e-9)
	}
}

func TestPCAScoresAreUncorrelated(t *testing.T) {
	z := standardize(
		[]float64{1, 2, 3, 1, 2, 3, 3, 1},
		[]float64{3, 3, 2, 1, 1, 2, 3, 2},
		[]float64{2, 1, 1, 3, 3, 2, 1, 1},
		[]float64{1, 1, 2, 2, 3, 3, 2, 1},
	)
	res, err := PCA(z, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.Equal(t, 4, res.Components())

	for a := 0; a < res.Components(); a++ {
		for b := a + 1; b < res.Components(); b++ {
			cov := stat.Covariance(mat.Col(nil, a, res.Scores), mat.Col(nil, b, res.Scores), nil)
			require.InDelta(t, 0, cov, 1e-9, "components %d and %d", a, b)
		}
	}
	sum := 0.0
	for i, e := range res.Explained {
		sum += e
		if i > 0 {
			require.LessOrEqual(t, e, res.Explained[i-1]+tol)
		}
	}
	require.LessOrEqual(t, sum, 1+tol)

	// Score variance equals the eigenvalue.
	for c, l := range res.Eigenvalues {
		require.InDelta(t, l, stat.PopVariance(mat.Col(nil, c, res.Scores), nil), 1e-9)
	}
}

func TestPCAKeepsAtMostNMinusOneComponents(t *testing.T) {
	z := standardize([]float64{1, 2, 3}, []float64{2, 1, 3}, []float64{3, 3, 1}, []float64{1, 3, 2})
	res, err := PCA(z, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Components())
	require.InDelta(t, 1.0, res.Cumulative[1], 1e-9)
}

func TestPCAProjectReproducesScores(t *testing.T) {
	z := standardize([]float64{1, 2, 3, 1, 2}, []float64{3, 3, 2, 1, 1}, []float64{2, 1, 1, 3, 2})
	res, err := PCA(z, []string{"a", "b", "c"})
	require.NoError(t, err)
	proj, err := res.Project(z)
	require.NoError(t, err)
	require.True(t, mat.EqualApprox(proj, res.Scores, 1e-9))

	_, err = res.Project(mat.NewDense(2, 2, nil))
	require.Error(t, err)
}

func TestPCADegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		x    mat.Matrix
		vars []string
		want error
	}{
		{"nil", nil, nil, ErrTooFewVariables},
		{"one column", mat.NewDense(3, 1, []float64{1, 0, -1}), []string{"a"}, ErrTooFewVariables},
		{"one row", mat.NewDense(1, 2, []float64{1, 2}), []string{"a", "b"}, ErrTooFewObservations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PCA(tt.x, tt.vars)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
			var de *DegenerateError
			require.True(t, errors.As(err, &de))
			require.Equal(t, "pca", de.Method)
		})
	}
}

func scenarioTable(t *testing.T) *Table {
	t.Helper()
	tab, err := NewTable([]string{"Low", "High"}, []string{"Yes", "No"}, [][]int{{10, 5}, {3, 12}})
	require.NoError(t, err)
	return tab
}

func TestContingencyProfiles(t *testing.T) {
	tab := scenarioTable(t)
	rp := tab.RowProfiles()
	require.InDelta(t, 10.0/15, rp[0][0], tol)
	require.InDelta(t, 5.0/15, rp[0][1], tol)

	for _, row := range rp {
		require.InDelta(t, 1.0, row[0]+row[1], tol)
	}
	cp := tab.ColProfiles()
	for j := range tab.Cols {
		require.InDelta(t, 1.0, cp[0][j]+cp[1][j], tol)
	}

	sumRows, sumCols := 0, 0
	for _, v := range tab.RowSums() {
		sumRows += v
	}
	for _, v := range tab.ColSums() {
		sumCols += v
	}
	require.Equal(t, 30, tab.Total())
	require.Equal(t, tab.Total(), sumRows)
	require.Equal(t, tab.Total(), sumCols)
}

func TestCAScenarioHasOneDimension(t *testing.T) {
	res, err := CA(scenarioTable(t))
	require.NoError(t, err)
	require.Equal(t, 1, res.Dimensions())

	require.InDelta(t, 6.6516, res.ChiSquare, 1e-4)
	require.Equal(t, 1, res.DF)
	require.Less(t, res.PValue, 0.05)
	require.InDelta(t, res.ChiSquare/30, res.TotalInertia, 1e-9)
	require.InDelta(t, res.TotalInertia, res.Eigenvalues[0], 1e-9)
	require.InDelta(t, 1.0, res.Explained[0], 1e-9)

	// With one dimension every point is fully represented.
	for i := 0; i < 2; i++ {
		require.InDelta(t, 1.0, res.RowCos2.At(i, 0), 1e-9)
		require.InDelta(t, 1.0, res.ColCos2.At(i, 0), 1e-9)
	}
	require.InDelta(t, 100, res.RowContrib.At(0, 0)+res.RowContrib.At(1, 0), 1e-9)
	// Low and High fall on opposite sides of the origin.
	require.Less(t, res.RowCoords.At(0, 0)*res.RowCoords.At(1, 0), 0.0)
}

func TestCAIndependentTable(t *testing.T) {
	// Proportional rows: every profile equals the centroid.
	tab, err := NewTable([]string{"a", "b"}, []string{"x", "y", "z"}, [][]int{{2, 4, 6}, {3, 6, 9}})
	require.NoError(t, err)
	res, err := CA(tab)
	require.NoError(t, err)
	require.InDelta(t, 0, res.ChiSquare, 1e-9)
	require.InDelta(t, 0, res.TotalInertia, 1e-12)
	require.Equal(t, 1, res.Dimensions())
	require.Equal(t, []float64{0}, res.Explained)
	require.Equal(t, []float64{0}, res.Cumulative)
	for i := 0; i < 2; i++ {
		require.InDelta(t, 0, res.RowCoords.At(i, 0), 1e-6)
		require.Zero(t, res.RowCos2.At(i, 0))
	}
	require.InDeltaSlice(t, []float64{0.4, 0.6}, res.RowMass, 1e-12)
	require.InDeltaSlice(t, []float64{5.0 / 30, 10.0 / 30, 15.0 / 30}, res.ColMass, 1e-12)
}

func TestCATrimsEmptyMarginsAndRejectsDegenerate(t *testing.T) {
	tab, err := NewTable([]string{"a", "b", "c"}, []string{"x", "y", "z"}, [][]int{{4, 1, 0}, {2, 6, 0}, {0, 0, 0}})
	require.NoError(t, err)
	res, err := CA(tab)
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, res.RemovedRows)
	require.Equal(t, []string{"z"}, res.RemovedCols)
	require.Equal(t, []string{"a", "b"}, res.Table.Rows)

	flat, err := NewTable([]string{"a", "b"}, []string{"x", "y"}, [][]int{{3, 0}, {5, 0}})
	require.NoError(t, err)
	_, err = CA(flat)
	require.True(t, errors.Is(err, ErrDegenerateTable))
}

func TestCAThreeByFourInertia(t *testing.T) {
	tab, err := NewTable(
		[]string{"Licence", "Master", "Doctorat"},
		[]string{"1", "2", "3", "4"},
		[][]int{{12, 7, 3, 1}, {5, 11, 9, 4}, {1, 3, 8, 10}},
	)
	require.NoError(t, err)
	res, err := CA(tab)
	require.NoError(t, err)
	require.Equal(t, 2, res.Dimensions())
	require.Equal(t, 6, res.DF)
	sum := 0.0
	for _, l := range res.Eigenvalues {
		sum += l
	}
	require.InDelta(t, res.ChiSquare/float64(tab.Total()), sum, 1e-9)
	require.GreaterOrEqual(t, res.Eigenvalues[0], res.Eigenvalues[1])
	for i := range res.Table.Rows {
		require.InDelta(t, 1.0, res.RowCos2.At(i, 0)+res.RowCos2.At(i, 1), 1e-9)
	}
}

func TestCrossTabExcludesMissing(t *testing.T) {
	a := []string{"Master", "Licence", "", "Master", "NA", "Licence"}
	b := []string{"Oui", "Non", "Oui", "Non", "Oui", " Oui "}
	tab, excluded, err := CrossTab(a, b)
	require.NoError(t, err)
	require.Equal(t, 2, excluded)
	require.Equal(t, []string{"Licence", "Master"}, tab.Rows)
	require.Equal(t, []string{"Non", "Oui"}, tab.Cols)
	require.Equal(t, [][]int{{1, 1}, {1, 1}}, tab.Counts)

	_, _, err = CrossTab([]string{"a"}, nil)
	require.Error(t, err)
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable([]string{"a", "a"}, []string{"x"}, [][]int{{1}, {2}})
	require.ErrorContains(t, err, "duplicate")
	_, err = NewTable([]string{"a"}, []string{"x", "y"}, [][]int{{1}})
	require.Error(t, err)
	_, err = NewTable([]string{"a"}, []string{"x"}, [][]int{{-1}})
	require.ErrorContains(t, err, "negative")
}

func TestProfilesOfZeroMarginAreNaN(t *testing.T) {
	tab, err := NewTable([]string{"a", "b"}, []string{"x", "y"}, [][]int{{0, 0}, {1, 2}})
	require.NoError(t, err)
	require.True(t, math.IsNaN(tab.RowProfiles()[0][0]))
	_, _, _, err = tab.ChiSquare()
	require.Error(t, err)
}

func mcaSample() ([]string, [][]string) {
	return []string{"Diplome", "Secteur"}, [][]string{
		{"Licence", "Public"},
		{"Master", "Prive"},
		{"Master", "Associatif"},
		{"Licence", "Public"},
		{"Master", "Prive"},
		{"Licence", "Associatif"},
		{"Master", "Public"},
	}
}

func TestMCAInertiaAndCategories(t *testing.T) {
	vars, values := mcaSample()
	res, err := MCA(vars, values)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Diplome=Licence", "Diplome=Master",
		"Secteur=Associatif", "Secteur=Prive", "Secteur=Public",
	}, res.Categories)

	// J - Q = 5 - 2 dimensions, total inertia (J-Q)/Q.
	require.Equal(t, 3, res.Dimensions())
	require.InDelta(t, 1.5, res.TotalInertia, tol)
	sum := 0.0
	for _, l := range res.Eigenvalues {
		sum += l
	}
	require.InDelta(t, res.TotalInertia, sum, 1e-9)
	require.InDelta(t, 1.0, res.Cumulative[len(res.Cumulative)-1], 1e-9)

	r, c := res.Individuals.Dims()
	require.Equal(t, len(values), r)
	require.Equal(t, 3, c)

	adj := 0.0
	for _, a := range res.Adjusted {
		adj += a
	}
	if len(res.Adjusted) > 0 {
		require.InDelta(t, 1.0, adj, 1e-9)
	}
}

func TestMCADegenerate(t *testing.T) {
	_, err := MCA([]string{"a"}, [][]string{{"x"}, {"y"}})
	require.True(t, errors.Is(err, ErrTooFewVariables))

	_, err = MCA([]string{"a", "b"}, [][]string{{"x", "u"}, {"x", "u"}})
	require.True(t, errors.Is(err, ErrTooFewLevels))

	_, err = MCA([]string{"a", "b"}, [][]string{{"x", "u"}})
	require.True(t, errors.Is(err, ErrTooFewObservations))
}

func TestIndicatorRowsSumToVariableCount(t *testing.T) {
	vars, values := mcaSample()
	z, cats, err := Indicator(vars, values)
	require.NoError(t, err)
	require.Len(t, cats, 5)
	r, _ := z.Dims()
	for i := 0; i < r; i++ {
		require.Equal(t, 2.0, mat.Sum(z.RowView(i)))
	}
}

func TestBenzecriIgnoresSmallEigenvalues(t *testing.T) {
	adj := benzecri([]float64{0.8, 0.6, 0.4, 0.1}, 2)
	require.Len(t, adj, 2)
	require.Greater(t, adj[0], adj[1])
	require.InDelta(t, 1.0, adj[0]+adj[1], tol)
}
