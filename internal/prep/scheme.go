// Package prep turns raw survey columns into analysable blocks: ordinal
// Likert blocks become scaled numeric matrices, multi-category blocks become
// cleaned label tables.
package prep

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultLevels are the three agreement labels used by the survey export:
// "pas du tout d'accord", "Neutre", "tout à fait d'accord".
var DefaultLevels = []string{"pdtd", "Neutre", "tafd"}

// Scheme maps ordinal labels to integer scores 1..k in label order.
type Scheme struct {
	labels []string
	scores map[string]float64
}

// NewScheme builds a scheme from at least two distinct labels, lowest first.
func NewScheme(labels ...string) (Scheme, error) {
	if len(labels) < 2 {
		return Scheme{}, errors.New("ordinal scheme needs at least two labels")
	}
	s := Scheme{scores: make(map[string]float64, len(labels))}
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return Scheme{}, fmt.Errorf("ordinal label %d is empty", i+1)
		}
		if _, dup := s.scores[l]; dup {
			return Scheme{}, fmt.Errorf("ordinal label %q repeated", l)
		}
		s.scores[l] = float64(i + 1)
		s.labels = append(s.labels, l)
	}
	return s, nil
}

// DefaultScheme returns the pdtd/Neutre/tafd -> 1/2/3 scheme.
func DefaultScheme() Scheme {
	s, _ := NewScheme(DefaultLevels...)
	return s
}

// Labels returns the labels in score order.
func (s Scheme) Labels() []string { return append([]string(nil), s.labels...) }

// Score returns the score of a raw cell. Unknown labels and missing markers
// report false.
func (s Scheme) Score(v string) (float64, bool) {
	x, ok := s.scores[strings.TrimSpace(v)]
	return x, ok
}

// Recode maps a raw column to scores, NaN marking missing cells.
func (s Scheme) Recode(col []string) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		if x, ok := s.Score(v); ok {
			out[i] = x
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
