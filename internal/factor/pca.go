package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PCAResult holds a principal component analysis of a standardised block.
type PCAResult struct {
	Variables []string
	// Eigenvalues of the correlation matrix, descending, one per component.
	Eigenvalues []float64
	// Explained is each eigenvalue over the sum of all eigenvalues.
	Explained  []float64
	Cumulative []float64
	// Scores is respondents x components.
	Scores *mat.Dense
	// Loadings is variables x components: the correlation of each variable
	// with each component.
	Loadings *mat.Dense
	// Contrib is the percentage contribution of each variable to a component.
	Contrib *mat.Dense
	// Cos2 is the squared loading: quality of representation of a variable.
	Cos2 *mat.Dense

	rotation *mat.Dense
}

// Components returns the number of retained components.
func (r *PCAResult) Components() int { return len(r.Eigenvalues) }

// PCA decomposes x (respondents x variables, each column centred with unit
// population variance) through the SVD x = U S Vᵀ. Eigenvalues are s²/n,
// scores are U S and loadings are V scaled by s/√n. min(n-1, p) components
// are kept since centring removes one degree of freedom.
func PCA(x mat.Matrix, variables []string) (*PCAResult, error) {
	if x == nil {
		return nil, &DegenerateError{Method: "pca", Have: 0, Need: 2, Err: ErrTooFewVariables}
	}
	n, p := x.Dims()
	if p < 2 {
		return nil, &DegenerateError{Method: "pca", Have: p, Need: 2, Err: ErrTooFewVariables}
	}
	if n < 2 {
		return nil, &DegenerateError{Method: "pca", Have: n, Need: 2, Err: ErrTooFewObservations}
	}
	if len(variables) != p {
		return nil, fmt.Errorf("pca: %d variable names for %d columns", len(variables), p)
	}
	svd, err := decompose("pca", x)
	if err != nil {
		return nil, err
	}
	k := p
	if n-1 < k {
		k = n - 1
	}

	var total float64
	for _, s := range svd.s {
		total += s * s / float64(n)
	}
	res := &PCAResult{
		Variables:   append([]string(nil), variables...),
		Eigenvalues: make([]float64, k),
		Scores:      mat.NewDense(n, k, nil),
		Loadings:    mat.NewDense(p, k, nil),
		Contrib:     mat.NewDense(p, k, nil),
		Cos2:        mat.NewDense(p, k, nil),
		rotation:    mat.NewDense(p, k, nil),
	}
	sqrtN := math.Sqrt(float64(n))
	for c := 0; c < k; c++ {
		s := svd.s[c]
		res.Eigenvalues[c] = s * s / float64(n)
		for i := 0; i < n; i++ {
			res.Scores.Set(i, c, svd.u.At(i, c)*s)
		}
		for j := 0; j < p; j++ {
			v := svd.v.At(j, c)
			l := v * s / sqrtN
			res.rotation.Set(j, c, v)
			res.Loadings.Set(j, c, l)
			res.Contrib.Set(j, c, 100*v*v)
			res.Cos2.Set(j, c, l*l)
		}
	}
	res.Explained, res.Cumulative = ratios(res.Eigenvalues, total)
	return res, nil
}

// Project maps already-standardised rows onto the retained components.
func (r *PCAResult) Project(x mat.Matrix) (*mat.Dense, error) {
	_, p := x.Dims()
	if pr, _ := r.rotation.Dims(); p != pr {
		return nil, fmt.Errorf("pca project: %d columns, model has %d variables", p, pr)
	}
	var out mat.Dense
	out.Mul(x, r.rotation)
	return &out, nil
}
