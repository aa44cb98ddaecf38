package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// correspondence is the common result of a correspondence analysis of a
// non-negative matrix: inertias and principal coordinates of both margins.
type correspondence struct {
	Inertia      []float64
	TotalInertia float64
	RowCoords    *mat.Dense
	ColCoords    *mat.Dense
	RowContrib   *mat.Dense
	ColContrib   *mat.Dense
	RowCos2      *mat.Dense
	ColCos2      *mat.Dense
	RowMass      []float64
	ColMass      []float64
}

// correspond runs the SVD of the standardised residuals
// S = Dr^-1/2 (P - r cᵀ) Dc^-1/2 and keeps at most dims dimensions. Every
// row and column mass must be positive.
func correspond(method string, n *mat.Dense, dims int) (*correspondence, error) {
	nr, nc := n.Dims()
	grand := mat.Sum(n)
	rmass := make([]float64, nr)
	cmass := make([]float64, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			v := n.At(i, j) / grand
			rmass[i] += v
			cmass[j] += v
		}
	}
	s := mat.NewDense(nr, nc, nil)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			e := rmass[i] * cmass[j]
			s.Set(i, j, (n.At(i, j)/grand-e)/math.Sqrt(e))
		}
	}
	svd, err := decompose(method, s)
	if err != nil {
		return nil, err
	}
	if dims > len(svd.s) {
		dims = len(svd.s)
	}

	res := &correspondence{
		Inertia:    make([]float64, dims),
		RowCoords:  mat.NewDense(nr, dims, nil),
		ColCoords:  mat.NewDense(nc, dims, nil),
		RowContrib: mat.NewDense(nr, dims, nil),
		ColContrib: mat.NewDense(nc, dims, nil),
		RowCos2:    mat.NewDense(nr, dims, nil),
		ColCos2:    mat.NewDense(nc, dims, nil),
		RowMass:    rmass,
		ColMass:    cmass,
	}
	for _, sv := range svd.s {
		res.TotalInertia += sv * sv
	}
	for k := 0; k < dims; k++ {
		sv := svd.s[k]
		res.Inertia[k] = sv * sv
		for i := 0; i < nr; i++ {
			u := svd.u.At(i, k)
			res.RowCoords.Set(i, k, u*sv/math.Sqrt(rmass[i]))
			res.RowContrib.Set(i, k, 100*u*u)
		}
		for j := 0; j < nc; j++ {
			v := svd.v.At(j, k)
			res.ColCoords.Set(j, k, v*sv/math.Sqrt(cmass[j]))
			res.ColContrib.Set(j, k, 100*v*v)
		}
	}

	// Squared chi-square distance of each profile to the centroid.
	for i := 0; i < nr; i++ {
		var d2 float64
		for j := 0; j < nc; j++ {
			x := s.At(i, j)
			d2 += x * x
		}
		d2 /= rmass[i]
		fillCos2(res.RowCos2, res.RowCoords, i, d2)
	}
	for j := 0; j < nc; j++ {
		var d2 float64
		for i := 0; i < nr; i++ {
			x := s.At(i, j)
			d2 += x * x
		}
		d2 /= cmass[j]
		fillCos2(res.ColCos2, res.ColCoords, j, d2)
	}
	return res, nil
}

func fillCos2(dst, coords *mat.Dense, i int, d2 float64) {
	_, k := coords.Dims()
	if d2 <= zeroInertia {
		return
	}
	for c := 0; c < k; c++ {
		x := coords.At(i, c)
		dst.Set(i, c, x*x/d2)
	}
}

// CAResult holds a simple correspondence analysis of a contingency table.
type CAResult struct {
	// Table is the analysed table after zero-margin rows and columns were removed.
	Table       *Table
	RemovedRows []string
	RemovedCols []string

	Eigenvalues  []float64
	Explained    []float64
	Cumulative   []float64
	TotalInertia float64

	ChiSquare float64
	DF        int
	PValue    float64

	// Row and column principal coordinates, levels x dimensions.
	RowCoords, ColCoords   *mat.Dense
	RowContrib, ColContrib *mat.Dense
	RowCos2, ColCos2       *mat.Dense
	RowMass, ColMass       []float64
}

// Dimensions returns the number of non-trivial dimensions.
func (r *CAResult) Dimensions() int { return len(r.Eigenvalues) }

// CA analyses t after trimming empty margins. The table must still be at
// least 2x2; min(rows, cols) - 1 dimensions are returned.
func CA(t *Table) (*CAResult, error) {
	trimmed, rr, rc := t.Trim()
	r, c := len(trimmed.Rows), len(trimmed.Cols)
	if r < 2 || c < 2 {
		have := r
		if c < r {
			have = c
		}
		return nil, &DegenerateError{Method: "ca", Have: have, Need: 2, Err: ErrDegenerateTable}
	}
	chi2, df, p, err := trimmed.ChiSquare()
	if err != nil {
		return nil, err
	}
	n := mat.NewDense(r, c, nil)
	for i, row := range trimmed.Counts {
		for j, v := range row {
			n.Set(i, j, float64(v))
		}
	}
	dims := r - 1
	if c-1 < dims {
		dims = c - 1
	}
	core, err := correspond("ca", n, dims)
	if err != nil {
		return nil, err
	}
	res := &CAResult{
		Table:        trimmed,
		RemovedRows:  rr,
		RemovedCols:  rc,
		Eigenvalues:  core.Inertia,
		TotalInertia: core.TotalInertia,
		ChiSquare:    chi2,
		DF:           df,
		PValue:       p,
		RowCoords:    core.RowCoords,
		ColCoords:    core.ColCoords,
		RowContrib:   core.RowContrib,
		ColContrib:   core.ColContrib,
		RowCos2:      core.RowCos2,
		ColCos2:      core.ColCos2,
		RowMass:      core.RowMass,
		ColMass:      core.ColMass,
	}
	res.Explained, res.Cumulative = ratios(res.Eigenvalues, res.TotalInertia)
	return res, nil
}
