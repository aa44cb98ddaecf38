package factor

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MCAResult holds a multiple correspondence analysis of a categorical block.
type MCAResult struct {
	Variables []string
	// Categories are labelled "variable=level", in indicator column order.
	Categories []string

	Eigenvalues []float64
	// Explained is each eigenvalue over the total inertia (J-Q)/Q.
	Explained    []float64
	Cumulative   []float64
	TotalInertia float64
	// Adjusted holds Benzécri-corrected inertia rates for the dimensions
	// whose eigenvalue exceeds 1/Q; it may be shorter than Eigenvalues.
	Adjusted []float64

	// Individuals is respondents x dimensions.
	Individuals *mat.Dense
	// CategoryCoords is categories x dimensions.
	CategoryCoords  *mat.Dense
	CategoryContrib *mat.Dense
	CategoryCos2    *mat.Dense
}

// Dimensions returns the number of retained dimensions.
func (r *MCAResult) Dimensions() int { return len(r.Eigenvalues) }

// Indicator builds the complete disjunctive table of values (respondents x
// variables). Levels of each variable are sorted; empty labels must have been
// handled by the caller.
func Indicator(variables []string, values [][]string) (*mat.Dense, []string, error) {
	q := len(variables)
	levels := make([][]string, q)
	index := make([]map[string]int, q)
	for j := range variables {
		seen := map[string]struct{}{}
		for i, row := range values {
			if len(row) != q {
				return nil, nil, fmt.Errorf("indicator: row %d has %d labels for %d variables", i, len(row), q)
			}
			seen[row[j]] = struct{}{}
		}
		for l := range seen {
			levels[j] = append(levels[j], l)
		}
		sort.Strings(levels[j])
		index[j] = make(map[string]int, len(levels[j]))
	}
	var cats []string
	for j, v := range variables {
		for _, l := range levels[j] {
			index[j][l] = len(cats)
			cats = append(cats, v+"="+l)
		}
	}
	if len(values) == 0 || len(cats) == 0 {
		return nil, cats, nil
	}
	z := mat.NewDense(len(values), len(cats), nil)
	for i, row := range values {
		for j, l := range row {
			z.Set(i, index[j][l], 1)
		}
	}
	return z, cats, nil
}

// MCA runs a correspondence analysis of the indicator matrix of values.
// min(J-Q, n-1) dimensions are kept, J being the number of categories and Q
// the number of variables.
func MCA(variables []string, values [][]string) (*MCAResult, error) {
	q := len(variables)
	if q < 2 {
		return nil, &DegenerateError{Method: "mca", Have: q, Need: 2, Err: ErrTooFewVariables}
	}
	n := len(values)
	if n < 2 {
		return nil, &DegenerateError{Method: "mca", Have: n, Need: 2, Err: ErrTooFewObservations}
	}
	z, cats, err := Indicator(variables, values)
	if err != nil {
		return nil, err
	}
	j := len(cats)
	dims := j - q
	if dims < 1 {
		return nil, &DegenerateError{Method: "mca", Have: j, Need: q + 1, Err: ErrTooFewLevels}
	}
	if n-1 < dims {
		dims = n - 1
	}
	core, err := correspond("mca", z, dims)
	if err != nil {
		return nil, err
	}
	res := &MCAResult{
		Variables:       append([]string(nil), variables...),
		Categories:      cats,
		Eigenvalues:     core.Inertia,
		TotalInertia:    float64(j-q) / float64(q),
		Individuals:     core.RowCoords,
		CategoryCoords:  core.ColCoords,
		CategoryContrib: core.ColContrib,
		CategoryCos2:    core.ColCos2,
	}
	res.Explained, res.Cumulative = ratios(res.Eigenvalues, res.TotalInertia)
	res.Adjusted = benzecri(res.Eigenvalues, q)
	return res, nil
}

// benzecri returns the corrected inertia rates of the eigenvalues above 1/q.
func benzecri(eig []float64, q int) []float64 {
	if q < 2 {
		return nil
	}
	fq := float64(q)
	var adj []float64
	var sum float64
	for _, l := range eig {
		if l <= 1/fq {
			break
		}
		d := fq / (fq - 1) * (l - 1/fq)
		adj = append(adj, d*d)
		sum += d * d
	}
	for i := range adj {
		adj[i] /= sum
	}
	return adj
}
