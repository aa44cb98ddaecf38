package prep

import (
	"fmt"
	"log/slog"
	"math"

	mstats "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/logging"
)

// zeroStd is the standard deviation under which a column counts as constant.
const zeroStd = 1e-12

// ScaledBlock is an ordinal block after recoding, imputation and scaling.
// Rows of Data line up with Keys; columns line up with Columns.
type ScaledBlock struct {
	Name    string
	Columns []string
	Keys    []dataset.RowKey
	// Data holds z-scores (population standard deviation).
	Data *mat.Dense
	// Raw holds the imputed scores before scaling.
	Raw *mat.Dense
	// Means and Stds are the per-column statistics used for scaling.
	Means []float64
	Stds  []float64
	// Imputed counts the cells filled per retained column.
	Imputed map[string]int
	Dropped []DroppedColumn
	// Alpha is Cronbach's alpha of the retained raw items.
	Alpha float64
}

// Rows returns the number of respondents in the block.
func (b *ScaledBlock) Rows() int { return len(b.Keys) }

// ImputeMean replaces NaN cells with the mean of the observed cells and
// returns the new column with the number of cells filled. A column without
// any observed cell is returned unchanged (still NaN) with zero filled.
func ImputeMean(col []float64) ([]float64, int) {
	observed := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	out := append([]float64(nil), col...)
	if len(observed) == 0 || len(observed) == len(col) {
		return out, 0
	}
	mean := mstats.Mean(observed)
	filled := 0
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = mean
			filled++
		}
	}
	return out, filled
}

// Standardize centres col and divides by its population standard deviation.
// A constant column yields std 0 and a nil slice.
func Standardize(col []float64) (z []float64, mean, std float64) {
	mean = stat.Mean(col, nil)
	std = stat.PopStdDev(col, nil)
	if std < zeroStd || math.IsNaN(std) {
		return nil, mean, 0
	}
	z = make([]float64, len(col))
	for i, v := range col {
		z[i] = (v - mean) / std
	}
	return z, mean, std
}

// Ordinal builds the scaled block of every column whose name contains pattern.
func Ordinal(rs *dataset.RecordSet, name, pattern string, scheme Scheme) (*ScaledBlock, error) {
	cols := rs.Match(pattern)
	if len(cols) == 0 {
		return nil, fmt.Errorf("block %s: pattern %q: %w", name, pattern, ErrNoColumns)
	}
	return OrdinalColumns(rs, name, cols, scheme)
}

// OrdinalColumns runs recode, drop all-missing, mean imputation, scaling and
// drop zero-variance over an explicit column list.
func OrdinalColumns(rs *dataset.RecordSet, name string, cols []string, scheme Scheme) (*ScaledBlock, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("block %s: %w", name, ErrNoColumns)
	}
	log := logging.Logger().With(slog.String("block", name))
	b := &ScaledBlock{Name: name, Keys: rs.Keys(), Imputed: map[string]int{}}

	var raws, zs [][]float64
	for _, c := range cols {
		cells, err := rs.Column(c)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", name, err)
		}
		scores := scheme.Recode(cells)
		if allNaN(scores) {
			b.drop(log, c, ReasonAllMissing)
			continue
		}
		filled, n := ImputeMean(scores)
		z, mean, std := Standardize(filled)
		if z == nil {
			b.drop(log, c, ReasonZeroVariance)
			continue
		}
		if n > 0 {
			log.Debug("imputed missing cells", slog.String("column", c), slog.Int("cells", n), slog.Float64("mean", mean))
		}
		b.Columns = append(b.Columns, c)
		b.Means = append(b.Means, mean)
		b.Stds = append(b.Stds, std)
		b.Imputed[c] = n
		raws = append(raws, filled)
		zs = append(zs, z)
	}

	b.Raw = columnsToDense(raws, rs.Len())
	b.Data = columnsToDense(zs, rs.Len())
	b.Alpha = CronbachAlpha(raws)
	return b, nil
}

// Transform recodes and scales the retained columns of another record set
// with this block's means and standard deviations. Missing cells take the
// block mean, so they sit at zero after scaling.
func (b *ScaledBlock) Transform(rs *dataset.RecordSet, scheme Scheme) (*mat.Dense, error) {
	if len(b.Columns) == 0 || rs.Len() == 0 {
		return nil, fmt.Errorf("block %s: nothing to transform", b.Name)
	}
	out := mat.NewDense(rs.Len(), len(b.Columns), nil)
	for j, c := range b.Columns {
		cells, err := rs.Column(c)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Name, err)
		}
		for i, x := range scheme.Recode(cells) {
			if math.IsNaN(x) {
				x = b.Means[j]
			}
			out.Set(i, j, (x-b.Means[j])/b.Stds[j])
		}
	}
	return out, nil
}

func (b *ScaledBlock) drop(log *slog.Logger, col string, reason DropReason) {
	b.Dropped = append(b.Dropped, DroppedColumn{Column: col, Reason: reason})
	log.Info("column dropped", slog.String("column", col), slog.String("reason", string(reason)))
}

func allNaN(xs []float64) bool {
	for _, v := range xs {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// columnsToDense lays out column slices as an n x len(cols) matrix. It
// returns nil when there are no columns or rows.
func columnsToDense(cols [][]float64, n int) *mat.Dense {
	if len(cols) == 0 || n == 0 {
		return nil
	}
	m := mat.NewDense(n, len(cols), nil)
	for j, c := range cols {
		m.SetCol(j, c)
	}
	return m
}
