package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/surveyfa/internal/config"
	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/factor"
	"github.com/KaramelBytes/surveyfa/internal/logging"
	"github.com/KaramelBytes/surveyfa/internal/plotting"
	"github.com/KaramelBytes/surveyfa/internal/prep"
)

// BlockKind selects the preprocessing and decomposition of a block.
type BlockKind string

const (
	// Ordinal blocks are recoded, imputed, scaled and analysed with PCA.
	Ordinal BlockKind = "ordinal"
	// Categorical blocks are cleaned and analysed with MCA.
	Categorical BlockKind = "categorical"
)

// Options controls a pipeline run.
type Options struct {
	// Scheme recodes ordinal blocks that do not carry their own levels.
	Scheme  prep.Scheme
	Missing prep.MissingPolicy
	// Plots is nil when no plot should be rendered.
	Plots *plotting.Options
	// Supplementary respondents are projected onto every ordinal block.
	Supplementary *dataset.RecordSet
}

// DefaultOptions uses the default scheme, missing-as-level and no plots.
func DefaultOptions() Options {
	return Options{Scheme: prep.DefaultScheme(), Missing: prep.MissingAsLevel}
}

// BlockResult is the outcome of the block procedure for one variable group.
type BlockResult struct {
	Name string
	Kind BlockKind

	Ordinal     *prep.ScaledBlock
	Categorical *prep.CategoricalBlock
	PCA         *factor.PCAResult
	MCA         *factor.MCAResult

	// Supplementary holds projected respondents that took no part in the fit.
	Supplementary *Supplementary

	Plots []string
	Notes []string

	scheme prep.Scheme
}

// Supplementary is a set of respondents projected onto a fitted PCA block.
type Supplementary struct {
	Source string
	Keys   []dataset.RowKey
	Scores *mat.Dense
}

// Keys returns the respondents the block's scores belong to, in score row order.
func (b *BlockResult) Keys() []dataset.RowKey {
	if b.Ordinal != nil {
		return b.Ordinal.Keys
	}
	if b.Categorical != nil {
		return b.Categorical.Keys
	}
	return nil
}

// Columns returns the retained columns.
func (b *BlockResult) Columns() []string {
	if b.Ordinal != nil {
		return b.Ordinal.Columns
	}
	if b.Categorical != nil {
		return b.Categorical.Columns
	}
	return nil
}

// Dropped returns the degenerate columns removed during preprocessing.
func (b *BlockResult) Dropped() []prep.DroppedColumn {
	if b.Ordinal != nil {
		return b.Ordinal.Dropped
	}
	if b.Categorical != nil {
		return b.Categorical.Dropped
	}
	return nil
}

// Scores returns the respondent coordinates.
func (b *BlockResult) Scores() *mat.Dense {
	if b.PCA != nil {
		return b.PCA.Scores
	}
	if b.MCA != nil {
		return b.MCA.Individuals
	}
	return nil
}

// Explained returns the inertia ratio of each dimension.
func (b *BlockResult) Explained() []float64 {
	if b.PCA != nil {
		return b.PCA.Explained
	}
	if b.MCA != nil {
		return b.MCA.Explained
	}
	return nil
}

// AnalyzeBlock runs the block procedure: select columns, clean them for the
// block kind, drop degenerate columns, then decompose. Degenerate columns are
// reported in the result; a decomposition that cannot be computed is an error.
func AnalyzeBlock(rs *dataset.RecordSet, spec config.BlockSpec, kind BlockKind, opt Options) (*BlockResult, error) {
	log := logging.Logger().With(slog.String("block", spec.Name))
	res := &BlockResult{Name: spec.Name, Kind: kind}

	switch kind {
	case Ordinal:
		scheme := opt.Scheme
		if len(spec.Levels) > 0 {
			s, err := prep.NewScheme(spec.Levels...)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", spec.Name, err)
			}
			scheme = s
		}
		var b *prep.ScaledBlock
		var err error
		if len(spec.Columns) > 0 {
			b, err = prep.OrdinalColumns(rs, spec.Name, spec.Columns, scheme)
		} else {
			b, err = prep.Ordinal(rs, spec.Name, spec.Pattern, scheme)
		}
		if err != nil {
			return nil, err
		}
		res.Ordinal, res.scheme = b, scheme
		for c, n := range b.Imputed {
			if n > 0 {
				res.Notes = append(res.Notes, fmt.Sprintf("%s: %s: %d missing cells mean-imputed", spec.Name, c, n))
			}
		}
		var data mat.Matrix
		if b.Data != nil {
			data = b.Data
		}
		pca, err := factor.PCA(data, b.Columns)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.Name, err)
		}
		res.PCA = pca
		log.Info("pca done", slog.Int("rows", b.Rows()), slog.Int("columns", len(b.Columns)), slog.Int("components", pca.Components()))

	case Categorical:
		var b *prep.CategoricalBlock
		var err error
		if len(spec.Columns) > 0 {
			b, err = prep.Categorical(rs, spec.Name, spec.Columns, opt.Missing)
		} else {
			b, err = prep.CategoricalMatch(rs, spec.Name, spec.Pattern, opt.Missing)
		}
		if err != nil {
			return nil, err
		}
		res.Categorical = b
		if b.Excluded > 0 {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: %d respondents excluded for missing labels", spec.Name, b.Excluded))
		}
		mca, err := factor.MCA(b.Columns, b.Values)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", spec.Name, err)
		}
		res.MCA = mca
		log.Info("mca done", slog.Int("rows", len(b.Keys)), slog.Int("columns", len(b.Columns)), slog.Int("dimensions", mca.Dimensions()))

	default:
		return nil, fmt.Errorf("block %s: unknown kind %q", spec.Name, kind)
	}

	sort.Strings(res.Notes)
	for _, d := range res.Dropped() {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: column %s dropped (%s)", spec.Name, d.Column, d.Reason))
	}
	return res, nil
}

// Supplement projects the respondents of sup onto a fitted PCA block. They
// are recoded and scaled with the block's own levels, means and deviations.
func (b *BlockResult) Supplement(sup *dataset.RecordSet) error {
	if b.PCA == nil || b.Ordinal == nil {
		return fmt.Errorf("block %s: supplementary respondents need a PCA block", b.Name)
	}
	x, err := b.Ordinal.Transform(sup, b.scheme)
	if err != nil {
		return err
	}
	scores, err := b.PCA.Project(x)
	if err != nil {
		return fmt.Errorf("block %s: %w", b.Name, err)
	}
	b.Supplementary = &Supplementary{Source: sup.Name(), Keys: sup.Keys(), Scores: scores}
	logging.Logger().Info("supplementary projected", slog.String("block", b.Name), slog.Int("rows", sup.Len()))
	return nil
}

// PlotBlock renders the scree plot, the variable or category map and one
// individual map per grouping. Maps that need two dimensions are skipped
// with a note when the block has only one.
func PlotBlock(res *BlockResult, groupings []dataset.Grouping, o plotting.Options) error {
	explained := res.Explained()
	path, err := plotting.Scree(res.Name+" scree", explained, o)
	if err != nil {
		return err
	}
	res.Plots = append(res.Plots, path)

	switch {
	case res.PCA != nil:
		path, err = plotting.VariableMap(res.Name+" variables", res.PCA.Variables, res.PCA.Loadings, explained, true, o)
	case res.MCA != nil:
		path, err = plotting.VariableMap(res.Name+" categories", res.MCA.Categories, res.MCA.CategoryCoords, explained, false, o)
	}
	if errors.Is(err, plotting.ErrTooFewDimensions) {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: one dimension only, maps skipped", res.Name))
		return nil
	}
	if err != nil {
		return err
	}
	res.Plots = append(res.Plots, path)

	scores := res.Scores()
	if len(groupings) == 0 {
		path, err := plotting.IndividualMap(res.Name+" individuals", scores, nil, explained, o)
		if err != nil {
			return err
		}
		res.Plots = append(res.Plots, path)
		return nil
	}
	for _, g := range groupings {
		labels, err := Align(res.Keys(), g)
		if err != nil {
			return fmt.Errorf("block %s: %w", res.Name, err)
		}
		path, err := plotting.IndividualMap(res.Name+" individuals by "+g.Name, scores, labels, explained, o)
		if err != nil {
			return err
		}
		res.Plots = append(res.Plots, path)
	}
	return nil
}

// CrossResult is a contingency table with its correspondence analysis.
type CrossResult struct {
	Name     string
	RowVar   string
	ColVar   string
	Table    *factor.Table
	Excluded int
	CA       *factor.CAResult
	Plots    []string
	Notes    []string
}

// Contingency cross-tabulates two columns and analyses the table.
func Contingency(rs *dataset.RecordSet, spec config.CrossSpec) (*CrossResult, error) {
	a, err := rs.Column(spec.Rows)
	if err != nil {
		return nil, fmt.Errorf("contingency %s: %w", spec.Name, err)
	}
	b, err := rs.Column(spec.Cols)
	if err != nil {
		return nil, fmt.Errorf("contingency %s: %w", spec.Name, err)
	}
	t, excluded, err := factor.CrossTab(a, b)
	if err != nil {
		return nil, fmt.Errorf("contingency %s: %w", spec.Name, err)
	}
	t.RowVar, t.ColVar = spec.Rows, spec.Cols
	res := &CrossResult{Name: spec.Name, RowVar: spec.Rows, ColVar: spec.Cols, Table: t, Excluded: excluded}
	if excluded > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: %d respondents without both labels left out", spec.Name, excluded))
	}
	ca, err := factor.CA(t)
	if err != nil {
		return nil, fmt.Errorf("contingency %s: %w", spec.Name, err)
	}
	res.CA = ca
	for _, r := range ca.RemovedRows {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: empty row level %s removed", spec.Name, r))
	}
	for _, c := range ca.RemovedCols {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: empty column level %s removed", spec.Name, c))
	}
	logging.Logger().Info("ca done", slog.String("table", spec.Name),
		slog.Int("rows", len(ca.Table.Rows)), slog.Int("cols", len(ca.Table.Cols)),
		slog.Float64("chi2", ca.ChiSquare))
	return res, nil
}

// PlotCross renders the CA biplot of res.
func PlotCross(res *CrossResult, o plotting.Options) error {
	ca := res.CA
	path, err := plotting.Biplot(res.Name, ca.Table.Rows, ca.RowCoords, ca.Table.Cols, ca.ColCoords, ca.Explained, o)
	if err != nil {
		return err
	}
	res.Plots = append(res.Plots, path)
	return nil
}

// Result is one full run of a plan over a survey file.
type Result struct {
	RunID      string
	Source     string
	Started    time.Time
	Rows       int
	Duplicates int
	Blocks     []*BlockResult
	Crosses    []*CrossResult
	Notes      []string
}

type plannedBlock struct {
	spec config.BlockSpec
	kind BlockKind
}

// Run executes plan over rs: derived columns first, then every ordinal and
// categorical block, then every contingency table.
func Run(rs *dataset.RecordSet, plan *config.Plan, opt Options) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	res := &Result{
		RunID:      uuid.NewString(),
		Source:     rs.Name(),
		Started:    time.Now(),
		Rows:       rs.Len(),
		Duplicates: rs.Duplicates(),
	}
	log := logging.Logger().With(slog.String("run", res.RunID))
	log.Info("run started", slog.String("source", res.Source), slog.Int("rows", res.Rows))
	if res.Duplicates > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d duplicate rows removed at load", res.Duplicates))
	}

	for _, d := range plan.Derive {
		next, err := Bin(rs, d)
		if err != nil {
			return nil, err
		}
		rs = next
	}
	var groupings []dataset.Grouping
	for _, name := range plan.Groupings {
		g, err := rs.Grouping(name)
		if err != nil {
			return nil, err
		}
		groupings = append(groupings, g)
	}

	var blocks []plannedBlock
	for _, s := range plan.Ordinal {
		blocks = append(blocks, plannedBlock{s, Ordinal})
	}
	for _, s := range plan.Categorical {
		blocks = append(blocks, plannedBlock{s, Categorical})
	}
	for _, b := range blocks {
		br, err := AnalyzeBlock(rs, b.spec, b.kind, opt)
		if err != nil {
			return nil, err
		}
		if opt.Supplementary != nil && br.PCA != nil {
			if err := br.Supplement(opt.Supplementary); err != nil {
				return nil, err
			}
		}
		if opt.Plots != nil {
			if err := PlotBlock(br, groupings, *opt.Plots); err != nil {
				return nil, err
			}
		}
		res.Blocks = append(res.Blocks, br)
		res.Notes = append(res.Notes, br.Notes...)
	}

	for _, c := range plan.Contingency {
		cr, err := Contingency(rs, c)
		if err != nil {
			return nil, err
		}
		if opt.Plots != nil {
			if err := PlotCross(cr, *opt.Plots); err != nil {
				return nil, err
			}
		}
		res.Crosses = append(res.Crosses, cr)
		res.Notes = append(res.Notes, cr.Notes...)
	}
	log.Info("run finished", slog.Int("blocks", len(res.Blocks)), slog.Int("tables", len(res.Crosses)), slog.Duration("elapsed", time.Since(res.Started)))
	return res, nil
}
