// Package formula describes regression models declaratively: a response and
// an ordered list of tagged terms. Interaction terms expand to both main
// effects plus their product, and nesting between specifications is checked
// on the term structure rather than on formula strings.
package formula

import (
	"strings"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

const (
	// InterceptName labels the constant column of formula-built designs.
	InterceptName = "Intercept"
	// ConstName labels the constant column of exog designs built with Exog.
	ConstName = "const"
)

// TermKind tags a term as a main effect or a two-way interaction.
type TermKind int

const (
	// Main is a single-variable main effect.
	Main TermKind = iota
	// Interaction is the product of two variables.
	Interaction
)

// Term is one predictor term.
type Term struct {
	Kind TermKind
	Vars []string
}

// MainEffect returns the main-effect term for v.
func MainEffect(v string) Term {
	return Term{Kind: Main, Vars: []string{v}}
}

// Interact returns the interaction term between a and b.
func Interact(a, b string) Term {
	return Term{Kind: Interaction, Vars: []string{a, b}}
}

// Name is "a" for a main effect and "a:b" for an interaction.
func (t Term) Name() string {
	return strings.Join(t.Vars, ":")
}

// Columns returns the design columns the term contributes before
// de-duplication: the variable itself, or both variables and their product.
func (t Term) Columns() []string {
	if t.Kind == Interaction {
		return []string{t.Vars[0], t.Vars[1], t.Name()}
	}
	return []string{t.Vars[0]}
}

func (t Term) validate() error {
	switch t.Kind {
	case Main:
		if len(t.Vars) != 1 || t.Vars[0] == "" {
			return errors.NewValidationError("term", "main effect needs exactly one variable", t.Vars)
		}
	case Interaction:
		if len(t.Vars) != 2 || t.Vars[0] == "" || t.Vars[1] == "" || t.Vars[0] == t.Vars[1] {
			return errors.NewValidationError("term", "interaction needs two distinct variables", t.Vars)
		}
	default:
		return errors.NewValidationError("term", "unknown term kind", t.Kind)
	}
	return nil
}

// Spec is a linear model specification.
type Spec struct {
	Name     string
	Response string
	Terms    []Term
}

// Validate checks every term.
func (s Spec) Validate() error {
	if s.Response == "" {
		return errors.NewValidationError("response", "must not be empty", s.Name)
	}
	for _, t := range s.Terms {
		if err := t.validate(); err != nil {
			return errors.Wrapf(err, "spec %s", s.Name)
		}
	}
	return nil
}

// Columns returns the expanded design column names, intercept first, each
// column appearing once in first-seen order.
func (s Spec) Columns() []string {
	cols := []string{InterceptName}
	seen := map[string]bool{InterceptName: true}
	for _, t := range s.Terms {
		for _, c := range t.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// Variables returns the table columns the spec reads, response first.
func (s Spec) Variables() []string {
	vars := []string{s.Response}
	seen := map[string]bool{s.Response: true}
	for _, t := range s.Terms {
		for _, v := range t.Vars {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// String renders the spec in the usual "y ~ a + b + a:b" notation.
func (s Spec) String() string {
	cols := s.Columns()[1:]
	if len(cols) == 0 {
		return s.Response + " ~ 1"
	}
	return s.Response + " ~ " + strings.Join(cols, " + ")
}

// CheckNested verifies that outer extends inner: same response, every term
// of inner present in outer, and a strictly larger design column set.
func CheckNested(inner, outer Spec) error {
	if inner.Response != outer.Response {
		return errors.NewValidationError("response", "nested specs must share the response",
			inner.Response+" vs "+outer.Response)
	}
	outerTerms := make(map[string]bool, len(outer.Terms))
	for _, t := range outer.Terms {
		outerTerms[t.Name()] = true
	}
	for _, t := range inner.Terms {
		if !outerTerms[t.Name()] {
			return errors.NewValidationError("terms", "term of "+inner.Name+" missing from "+outer.Name, t.Name())
		}
	}
	outerCols := make(map[string]bool)
	for _, c := range outer.Columns() {
		outerCols[c] = true
	}
	innerCols := inner.Columns()
	for _, c := range innerCols {
		if !outerCols[c] {
			return errors.NewValidationError("columns", "column of "+inner.Name+" missing from "+outer.Name, c)
		}
	}
	if len(innerCols) >= len(outerCols) {
		return errors.NewValidationError("columns", outer.Name+" does not add columns to "+inner.Name, len(outerCols))
	}
	return nil
}

// SleepColumns maps analysis roles onto table column names.
type SleepColumns struct {
	Quality   string
	Stress    string
	Activity  string
	Duration  string
	Age       string
	HeartRate string
}

// SleepQualitySpecs returns the three nested sleep-quality models:
// stress only; stress by physical activity; and the interaction model with
// sleep duration, age and heart rate as covariates.
func SleepQualitySpecs(c SleepColumns) []Spec {
	m1 := Spec{
		Name:     "model1",
		Response: c.Quality,
		Terms:    []Term{MainEffect(c.Stress)},
	}
	m2 := Spec{
		Name:     "model2",
		Response: c.Quality,
		Terms: []Term{
			MainEffect(c.Stress),
			MainEffect(c.Activity),
			Interact(c.Stress, c.Activity),
		},
	}
	m3 := Spec{
		Name:     "model3",
		Response: c.Quality,
		Terms: append(append([]Term(nil), m2.Terms...),
			MainEffect(c.Duration),
			MainEffect(c.Age),
			MainEffect(c.HeartRate),
		),
	}
	return []Spec{m1, m2, m3}
}
