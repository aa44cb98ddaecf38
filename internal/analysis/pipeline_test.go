package analysis

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/factor"
	"github.com/KaramelBytes/surveyfa/internal/plotting"
	"github.com/KaramelBytes/surveyfa/internal/prep"
)

// survey has a constant ordinal column (Perti_C), one missing ordinal cell
// and one respondent (row 7) without a diploma.
func survey(t *testing.T) *dataset.RecordSet {
	t.Helper()
	rs, err := dataset.New("survey.csv",
		[]string{"ID", "Age", "Niveau", "Satisfaction", "Perti_A", "Perti_B", "Perti_C", "Parcours_Diplome", "Parcours_Secteur"},
		[][]string{
			{"1", "22", "L1", "Oui", "pdtd", "tafd", "Neutre", "Bac", "Public"},
			{"2", "27", "L2", "Non", "Neutre", "Neutre", "Neutre", "Licence", "Prive"},
			{"3", "31", "L1", "Oui", "tafd", "pdtd", "Neutre", "Bac", "Prive"},
			{"4", "40", "L3", "Non", "pdtd", "pdtd", "Neutre", "Master", "Public"},
			{"5", "19", "L2", "Oui", "tafd", "tafd", "Neutre", "Licence", "Public"},
			{"6", "50", "L3", "Oui", "Neutre", "tafd", "Neutre", "Master", "Prive"},
			{"7", "36", "L1", "Non", "tafd", "", "Neutre", "", "Public"},
			{"8", "24", "L2", "Oui", "pdtd", "Neutre", "Neutre", "Bac", "Prive"},
		})
	require.NoError(t, err)
	return rs
}

func surveyPlan() *config.Plan {
	return &config.Plan{
		Ordinal:     []config.BlockSpec{{Name: "Pertinence", Pattern: "Perti_"}},
		Categorical: []config.BlockSpec{{Name: "Parcours", Columns: []string{"Parcours_Diplome", "Parcours_Secteur"}}},
		Contingency: []config.CrossSpec{{Name: "Niveau x Satisfaction", Rows: "Niveau", Cols: "Satisfaction"}},
		Derive: []config.BinSpec{
			{Name: "Classe_age", Column: "Age", Edges: []float64{25, 35, 45}, Labels: []string{"<25", "25-34", "35-44", "45+"}},
		},
		Groupings: []string{"Classe_age", "Niveau"},
	}
}

func TestConstantColumnDoesNotChangePCA(t *testing.T) {
	rs := survey(t)
	opt := DefaultOptions()
	with, err := AnalyzeBlock(rs, config.BlockSpec{Name: "P", Columns: []string{"Perti_A", "Perti_C", "Perti_B"}}, Ordinal, opt)
	require.NoError(t, err)
	without, err := AnalyzeBlock(rs, config.BlockSpec{Name: "P", Columns: []string{"Perti_A", "Perti_B"}}, Ordinal, opt)
	require.NoError(t, err)

	require.Equal(t, []string{"Perti_A", "Perti_B"}, with.Columns())
	require.Equal(t, []prep.DroppedColumn{{Column: "Perti_C", Reason: prep.ReasonZeroVariance}}, with.Dropped())
	require.InDeltaSlice(t, without.PCA.Eigenvalues, with.PCA.Eigenvalues, 1e-12)
	r, c := without.Scores().Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			require.InDelta(t, without.Scores().At(i, j), with.Scores().At(i, j), 1e-12)
		}
	}

	require.Contains(t, with.Notes, "P: column Perti_C dropped (zero variance)")
	require.Contains(t, with.Notes, "P: Perti_B: 1 missing cells mean-imputed")
}

func TestAnalyzeBlockNeedsTwoUsableColumns(t *testing.T) {
	_, err := AnalyzeBlock(survey(t), config.BlockSpec{Name: "P", Columns: []string{"Perti_A", "Perti_C"}}, Ordinal, DefaultOptions())
	require.Error(t, err)
	require.True(t, errors.Is(err, factor.ErrTooFewVariables))
	var de *factor.DegenerateError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 1, de.Have)
}

func TestAnalyzeBlockNoMatch(t *testing.T) {
	_, err := AnalyzeBlock(survey(t), config.BlockSpec{Name: "N", Pattern: "Necessite"}, Ordinal, DefaultOptions())
	require.ErrorIs(t, err, prep.ErrNoColumns)
}

func TestSupplementaryRespondents(t *testing.T) {
	rs := survey(t)
	res, err := AnalyzeBlock(rs, config.BlockSpec{Name: "Pertinence", Pattern: "Perti_"}, Ordinal, DefaultOptions())
	require.NoError(t, err)

	// Projecting the fitted respondents again gives back their scores.
	require.NoError(t, res.Supplement(rs))
	require.Equal(t, rs.Keys(), res.Supplementary.Keys)
	require.True(t, mat.EqualApprox(res.Scores(), res.Supplementary.Scores, 1e-9))

	// Perti_C was dropped from the fit and is not needed; a missing answer sits at the mean.
	late, err := dataset.New("late.csv", []string{"Perti_A", "Perti_B"}, [][]string{
		{"tafd", "tafd"},
		{"", ""},
	})
	require.NoError(t, err)
	require.NoError(t, res.Supplement(late))
	require.Equal(t, "late.csv", res.Supplementary.Source)
	r, c := res.Supplementary.Scores.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, res.PCA.Components(), c)
	for j := 0; j < c; j++ {
		require.InDelta(t, 0, res.Supplementary.Scores.At(1, j), 1e-12)
	}

	missing, err := dataset.New("x.csv", []string{"Perti_A"}, [][]string{{"tafd"}})
	require.NoError(t, err)
	require.ErrorIs(t, res.Supplement(missing), dataset.ErrUnknownColumn)

	cat, err := AnalyzeBlock(rs, config.BlockSpec{Name: "Parcours", Pattern: "Parcours"}, Categorical, DefaultOptions())
	require.NoError(t, err)
	require.Error(t, cat.Supplement(rs))
}

func TestRunProjectsSupplementary(t *testing.T) {
	opt := DefaultOptions()
	late, err := dataset.New("late.csv", []string{"Perti_A", "Perti_B", "Perti_C"}, [][]string{
		{"pdtd", "tafd", "Neutre"},
	})
	require.NoError(t, err)
	opt.Supplementary = late

	res, err := Run(survey(t), surveyPlan(), opt)
	require.NoError(t, err)
	require.NotNil(t, res.Blocks[0].Supplementary)
	require.Nil(t, res.Blocks[1].Supplementary)
	require.Contains(t, res.Markdown(0), "Supplementary respondents (late.csv):")
}

func TestAnalyzeBlockLevelsOverride(t *testing.T) {
	rs, err := dataset.New("s", []string{"Q1", "Q2"}, [][]string{
		{"non", "oui"}, {"oui", "oui"}, {"non", "non"}, {"oui", "non"},
	})
	require.NoError(t, err)
	res, err := AnalyzeBlock(rs, config.BlockSpec{Name: "Q", Pattern: "Q", Levels: []string{"non", "oui"}}, Ordinal, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []string{"Q1", "Q2"}, res.Columns())
	require.Empty(t, res.Dropped())
}

func TestCategoricalBlockMissingPolicies(t *testing.T) {
	rs := survey(t)
	spec := config.BlockSpec{Name: "Parcours", Pattern: "Parcours"}

	asLevel, err := AnalyzeBlock(rs, spec, Categorical, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, asLevel.Keys(), 8)
	require.Contains(t, asLevel.MCA.Categories, "Parcours_Diplome=NA")
	require.InDelta(t, 2.0, asLevel.MCA.TotalInertia, 1e-9)
	require.Equal(t, 4, asLevel.MCA.Dimensions())

	opt := DefaultOptions()
	opt.Missing = prep.MissingExclude
	excl, err := AnalyzeBlock(rs, spec, Categorical, opt)
	require.NoError(t, err)
	require.Len(t, excl.Keys(), 7)
	require.NotContains(t, excl.Keys(), rs.Key(6))
	require.Contains(t, excl.Notes, "Parcours: 1 respondents excluded for missing labels")

	// Labels follow the surviving respondents, not the file positions.
	g, err := rs.Grouping("Niveau")
	require.NoError(t, err)
	labels, err := Align(excl.Keys(), g)
	require.NoError(t, err)
	require.Equal(t, []string{"L1", "L2", "L1", "L3", "L2", "L3", "L2"}, labels)
}

func TestAlignReportsUnknownKeys(t *testing.T) {
	rs := survey(t)
	g, err := rs.Filter(func(i int) bool { return i != 0 }).Grouping("Niveau")
	require.NoError(t, err)

	_, err = Align(rs.Keys(), g)
	var ae *AlignmentError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "Niveau", ae.Grouping)
	require.Equal(t, 8, ae.Rows)
	require.Equal(t, []dataset.RowKey{rs.Key(0)}, ae.Missing)
	require.Contains(t, err.Error(), "1 of 8 rows")
}

func TestBin(t *testing.T) {
	rs, err := dataset.New("s", []string{"Age"}, [][]string{{"19"}, {"25"}, {"34,5"}, {"45"}, {""}, {"abc"}})
	require.NoError(t, err)
	out, err := Bin(rs, config.BinSpec{Name: "Classe", Column: "Age", Edges: []float64{25, 35, 45}, Labels: []string{"<25", "25-34", "35-44", "45+"}})
	require.NoError(t, err)
	got, err := out.Column("Classe")
	require.NoError(t, err)
	require.Equal(t, []string{"<25", "25-34", "25-34", "45+", "", ""}, got)
	require.False(t, rs.Has("Classe"))

	_, err = Bin(rs, config.BinSpec{Name: "X", Column: "Taille", Edges: []float64{1}, Labels: []string{"a", "b"}})
	require.ErrorIs(t, err, dataset.ErrUnknownColumn)
	_, err = Bin(rs, config.BinSpec{Name: "X", Column: "Age", Edges: []float64{1}, Labels: []string{"a"}})
	require.Error(t, err)
}

func TestContingency(t *testing.T) {
	res, err := Contingency(survey(t), config.CrossSpec{Name: "NS", Rows: "Niveau", Cols: "Satisfaction"})
	require.NoError(t, err)
	require.Equal(t, []string{"L1", "L2", "L3"}, res.Table.Rows)
	require.Equal(t, []string{"Non", "Oui"}, res.Table.Cols)
	require.Equal(t, [][]int{{1, 2}, {1, 2}, {1, 1}}, res.Table.Counts)
	require.Equal(t, 0, res.Excluded)
	require.Equal(t, 1, res.CA.Dimensions())
	require.Equal(t, 2, res.CA.DF)

	_, err = Contingency(survey(t), config.CrossSpec{Name: "X", Rows: "Niveau", Cols: "Perti_C"})
	require.ErrorIs(t, err, factor.ErrDegenerateTable)
}

func TestIndependentTableHasZeroInertia(t *testing.T) {
	var rows [][]string
	for _, cell := range [][2]string{{"L1", "Oui"}, {"L1", "Non"}, {"L2", "Oui"}, {"L2", "Non"}} {
		for i := 0; i < 5; i++ {
			rows = append(rows, []string{cell[0], cell[1]})
		}
	}
	rs, err := dataset.New("s", []string{"Niveau", "Satisfaction"}, rows)
	require.NoError(t, err)

	res, err := Contingency(rs, config.CrossSpec{Name: "Independent", Rows: "Niveau", Cols: "Satisfaction"})
	require.NoError(t, err)
	ca := res.CA
	require.Equal(t, [][]int{{5, 5}, {5, 5}}, ca.Table.Counts)
	require.InDelta(t, 0, ca.ChiSquare, 1e-12)
	require.InDelta(t, 1, ca.PValue, 1e-12)
	require.InDelta(t, 0, ca.TotalInertia, 1e-12)
	require.Equal(t, 1, ca.Dimensions())
	require.Equal(t, []float64{0}, ca.Explained)
	require.Equal(t, []float64{0}, ca.Cumulative)
	require.InDeltaSlice(t, []float64{0.5, 0.5}, ca.RowMass, 1e-12)

	po := plotting.Options{Dir: t.TempDir(), Format: "png"}
	require.NoError(t, po.Validate())
	require.NoError(t, PlotCross(res, po))
	require.Len(t, res.Plots, 1)
	require.FileExists(t, res.Plots[0])

	md := (&Result{Crosses: []*CrossResult{res}}).Markdown(0)
	require.Contains(t, md, "Total inertia: 0.00000")
	require.NotContains(t, md, "NaN")
}

func TestRunWithPlots(t *testing.T) {
	rs := survey(t)
	po := plotting.Options{Dir: t.TempDir(), Format: "png"}
	require.NoError(t, po.Validate())
	opt := DefaultOptions()
	opt.Plots = &po

	res, err := Run(rs, surveyPlan(), opt)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, 8, res.Rows)
	require.Len(t, res.Blocks, 2)
	require.Len(t, res.Crosses, 1)

	pert := res.Blocks[0]
	require.Equal(t, Ordinal, pert.Kind)
	require.NotNil(t, pert.PCA)
	// scree, variables and one map per grouping
	require.Len(t, pert.Plots, 4)
	require.Len(t, res.Blocks[1].Plots, 4)
	require.Len(t, res.Crosses[0].Plots, 1)
	for _, b := range res.Blocks {
		for _, p := range b.Plots {
			require.FileExists(t, p)
		}
	}
	require.FileExists(t, res.Crosses[0].Plots[0])
	require.Contains(t, res.Notes, "Pertinence: column Perti_C dropped (zero variance)")

	md := res.Markdown(3)
	for _, want := range []string{
		"[RUN]", "[BLOCK Pertinence]", "[BLOCK Parcours]",
		"[CONTINGENCY Niveau x Satisfaction]", "[PLOTS]", "[NOTES]",
		"Dropped: Perti_C (zero variance)", "Parcours_Diplome=NA", "Chi-square:",
		"Cos2:", "Category cos2:", "Row quality:", "Column quality:", "| Mass |",
	} {
		require.Contains(t, md, want)
	}

	var buf bytes.Buffer
	res.WriteTables(&buf, 0)
	out := buf.String()
	require.Contains(t, out, "Pertinence (ordinal, 2 columns, 8 respondents)")
	require.Contains(t, out, "chi2 = ")
	require.True(t, strings.Contains(out, "Total"))
}

func TestRunWithoutPlots(t *testing.T) {
	res, err := Run(survey(t), surveyPlan(), DefaultOptions())
	require.NoError(t, err)
	for _, b := range res.Blocks {
		require.Empty(t, b.Plots)
	}
	require.NotContains(t, res.Markdown(0), "[PLOTS]")
}

func TestRunErrors(t *testing.T) {
	plan := surveyPlan()
	plan.Groupings = []string{"Region"}
	_, err := Run(survey(t), plan, DefaultOptions())
	require.ErrorIs(t, err, dataset.ErrUnknownColumn)

	_, err = Run(survey(t), &config.Plan{}, DefaultOptions())
	require.Error(t, err)
	require.Contains(t, err.Error(), "plan has no blocks")
}
