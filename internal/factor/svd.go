// Package factor implements the decompositions used on survey blocks:
// principal component analysis, simple correspondence analysis and
// multiple correspondence analysis. All three are computed from a thin
// singular value decomposition (gonum mat.SVD).
package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type thinSVD struct {
	u, v *mat.Dense
	s    []float64
}

// decompose factorises m and orients each singular pair so that the entry of
// largest magnitude in the right singular vector is positive.
func decompose(method string, m mat.Matrix) (*thinSVD, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, &DegenerateError{Method: method, Err: ErrDecomposition}
	}
	res := &thinSVD{s: svd.Values(nil), u: &mat.Dense{}, v: &mat.Dense{}}
	svd.UTo(res.u)
	svd.VTo(res.v)

	ur, _ := res.u.Dims()
	vr, vc := res.v.Dims()
	for k := 0; k < vc; k++ {
		best, sign := 0.0, 1.0
		for j := 0; j < vr; j++ {
			if a := math.Abs(res.v.At(j, k)); a > best+1e-12 {
				best = a
				sign = math.Copysign(1, res.v.At(j, k))
			}
		}
		if sign > 0 {
			continue
		}
		for j := 0; j < vr; j++ {
			res.v.Set(j, k, -res.v.At(j, k))
		}
		for i := 0; i < ur; i++ {
			res.u.Set(i, k, -res.u.At(i, k))
		}
	}
	return res, nil
}

// zeroInertia is the total under which a decomposition explains nothing.
const zeroInertia = 1e-12

// ratios returns each value over the sum of all and the running total.
func ratios(values []float64, total float64) (explained, cumulative []float64) {
	explained = make([]float64, len(values))
	cumulative = make([]float64, len(values))
	run := 0.0
	for i, v := range values {
		if total > zeroInertia {
			explained[i] = v / total
		}
		run += explained[i]
		cumulative[i] = run
	}
	return explained, cumulative
}
