package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/surveyfa/internal/utils"
)

// BlockSpec names a group of columns selected by substring pattern or by
// explicit column list.
type BlockSpec struct {
	Name    string   `yaml:"name"`
	Pattern string   `yaml:"pattern,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	// Levels overrides the ordinal scheme for this block, lowest first.
	Levels []string `yaml:"levels,omitempty"`
}

// CrossSpec names the two columns of a contingency table.
type CrossSpec struct {
	Name string `yaml:"name"`
	Rows string `yaml:"rows"`
	Cols string `yaml:"cols"`
}

// BinSpec derives a categorical column from a numeric one. A value v falls in
// class i when Edges[i-1] <= v < Edges[i]; Labels has len(Edges)+1 entries.
type BinSpec struct {
	Name   string    `yaml:"name"`
	Column string    `yaml:"column"`
	Edges  []float64 `yaml:"edges"`
	Labels []string  `yaml:"labels"`
}

// Plan describes one full analysis run over a survey file.
type Plan struct {
	Ordinal     []BlockSpec `yaml:"ordinal"`
	Categorical []BlockSpec `yaml:"categorical,omitempty"`
	Contingency []CrossSpec `yaml:"contingency,omitempty"`
	// Derive runs before any block so its columns can be used anywhere.
	Derive []BinSpec `yaml:"derive,omitempty"`
	// Groupings colour the individual maps, one map per grouping.
	Groupings []string `yaml:"groupings,omitempty"`
}

// DefaultPlan is the starter plan written by `surveyfa init`.
func DefaultPlan() *Plan {
	return &Plan{
		Ordinal: []BlockSpec{
			{Name: "Pertinence", Pattern: "Pertinence"},
			{Name: "Utilisation", Pattern: "Utilisation"},
			{Name: "Necessite", Pattern: "Necessite"},
		},
		Categorical: []BlockSpec{
			{Name: "Parcours", Pattern: "Parcours"},
		},
		Contingency: []CrossSpec{
			{Name: "Niveau x Satisfaction", Rows: "Niveau", Cols: "Satisfaction"},
		},
		Derive: []BinSpec{
			{Name: "Classe_age", Column: "Age", Edges: []float64{25, 35, 45}, Labels: []string{"<25", "25-34", "35-44", "45+"}},
		},
		Groupings: []string{"Classe_age", "Niveau"},
	}
}

// Validate checks names, selectors and bins.
func (p *Plan) Validate() error {
	var errs []error
	seen := map[string]bool{}
	name := func(kind, n string) {
		if strings.TrimSpace(n) == "" {
			errs = append(errs, fmt.Errorf("%s: empty name", kind))
			return
		}
		if seen[n] {
			errs = append(errs, fmt.Errorf("%s %q: name used twice", kind, n))
		}
		seen[n] = true
	}
	for _, b := range p.Ordinal {
		name("ordinal block", b.Name)
		errs = append(errs, b.validate("ordinal block"))
		if len(b.Levels) == 1 {
			errs = append(errs, fmt.Errorf("ordinal block %q: need at least two levels", b.Name))
		}
	}
	for _, b := range p.Categorical {
		name("categorical block", b.Name)
		errs = append(errs, b.validate("categorical block"))
	}
	for _, c := range p.Contingency {
		name("contingency", c.Name)
		if c.Rows == "" || c.Cols == "" {
			errs = append(errs, fmt.Errorf("contingency %q: rows and cols are required", c.Name))
		} else if c.Rows == c.Cols {
			errs = append(errs, fmt.Errorf("contingency %q: rows and cols name the same column", c.Name))
		}
	}
	for _, d := range p.Derive {
		if d.Name == "" || d.Column == "" {
			errs = append(errs, errors.New("derive: name and column are required"))
			continue
		}
		if len(d.Edges) == 0 || len(d.Labels) != len(d.Edges)+1 {
			errs = append(errs, fmt.Errorf("derive %q: need %d labels for %d edges", d.Name, len(d.Edges)+1, len(d.Edges)))
		}
		for i := 1; i < len(d.Edges); i++ {
			if d.Edges[i] <= d.Edges[i-1] {
				errs = append(errs, fmt.Errorf("derive %q: edges must increase", d.Name))
				break
			}
		}
	}
	if len(p.Ordinal)+len(p.Categorical)+len(p.Contingency) == 0 {
		errs = append(errs, errors.New("plan has no blocks and no contingency table"))
	}
	return errors.Join(errs...)
}

func (b BlockSpec) validate(kind string) error {
	hasPattern := strings.TrimSpace(b.Pattern) != ""
	if hasPattern == (len(b.Columns) > 0) {
		return fmt.Errorf("%s %q: set exactly one of pattern or columns", kind, b.Name)
	}
	return nil
}

// LoadPlan reads and validates a YAML plan. Unknown keys are rejected.
func LoadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &p, nil
}

// SavePlan writes p as YAML.
func SavePlan(p *Plan, path string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}
