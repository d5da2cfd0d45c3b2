// Package memory provides a pure-Go in-memory model backend. Models are
// loaded from YAML fixture files describing variables, constraints and an
// objective sense.
//
// The Optimize implementation is a deliberately naive bounded-greedy
// evaluator: it drives each variable to the bound favoured by its objective
// coefficient and ignores constraint interaction. It exists to give the
// wrapper, the collaborator operations and the tests a deterministic,
// in-process backend; it is not a solver.
package memory

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/AndrewBMartin/MetaModel/backend"
)

// Fixture is the YAML document a model is loaded from.
type Fixture struct {
	Name        string              `yaml:"name"`
	Sense       string              `yaml:"sense"` // "maximize" or "minimize"
	Variables   []FixtureVariable   `yaml:"variables"`
	Constraints []FixtureConstraint `yaml:"constraints"`
}

// FixtureVariable describes one variable of a fixture.
type FixtureVariable struct {
	Name  string   `yaml:"name"`
	Obj   float64  `yaml:"obj"`
	Lower float64  `yaml:"lower"`
	Upper *float64 `yaml:"upper"` // nil means unbounded above
}

// FixtureConstraint describes one constraint row of a fixture.
type FixtureConstraint struct {
	Name  string   `yaml:"name"`
	Vars  []string `yaml:"vars"`
	Sense string   `yaml:"sense"`
	RHS   float64  `yaml:"rhs"`
}

// Backend loads models from YAML fixture files on disk.
type Backend struct{}

// New returns a fixture-file backend.
func New() *Backend {
	return &Backend{}
}

// Load reads the fixture at name and builds a model from it.
func (b *Backend) Load(name string) (backend.Model, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "load model %q", name)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse model fixture %q", name)
	}

	return FromFixture(f), nil
}

type variable struct {
	name  string
	obj   float64
	lower float64
	upper float64
	value float64
}

// Model is an in-memory implementation of backend.Model.
type Model struct {
	maximize    bool
	vars        []*variable
	varIndex    map[string]*variable
	constraints []backend.Constraint
	status      backend.Status
	objValue    float64
}

var _ backend.Model = (*Model)(nil)

// FromFixture builds a model directly from a fixture, bypassing the
// filesystem. Used by tests.
func FromFixture(f Fixture) *Model {
	m := &Model{
		maximize: f.Sense != "minimize",
		varIndex: make(map[string]*variable, len(f.Variables)),
		status:   backend.StatusUnsolved,
	}
	for _, fv := range f.Variables {
		upper := math.Inf(1)
		if fv.Upper != nil {
			upper = *fv.Upper
		}
		v := &variable{name: fv.Name, obj: fv.Obj, lower: fv.Lower, upper: upper}
		m.vars = append(m.vars, v)
		m.varIndex[v.name] = v
	}
	for _, fc := range f.Constraints {
		m.constraints = append(m.constraints, backend.Constraint{
			Name:  fc.Name,
			Vars:  append([]string(nil), fc.Vars...),
			Sense: fc.Sense,
			RHS:   fc.RHS,
		})
	}
	return m
}

// Optimize assigns each variable the bound favoured by its objective
// coefficient and records the resulting objective value. A favourable
// infinite bound makes the model unbounded.
func (m *Model) Optimize() error {
	m.objValue = 0
	for _, v := range m.vars {
		want := v.lower
		if (m.maximize && v.obj > 0) || (!m.maximize && v.obj < 0) {
			want = v.upper
		}
		if math.IsInf(want, 0) {
			m.status = backend.StatusUnbounded
			return nil
		}
		v.value = want
		m.objValue += v.obj * v.value
	}
	m.status = backend.StatusOptimal
	return nil
}

// Status reports the solve state after the last Optimize.
func (m *Model) Status() backend.Status {
	return m.status
}

// ObjectiveValue returns the objective value of the last solution.
func (m *Model) ObjectiveValue() float64 {
	return m.objValue
}

// Variables returns variables of the given family, or all when family is "".
func (m *Model) Variables(family string) ([]backend.Variable, error) {
	var out []backend.Variable
	for _, v := range m.vars {
		if family != "" && backend.Family(v.name) != family {
			continue
		}
		out = append(out, backend.Variable{
			Name:  v.name,
			Obj:   v.obj,
			Lower: v.lower,
			Upper: v.upper,
			Value: v.value,
		})
	}
	return out, nil
}

// Constraints returns constraints of the given family, or all when family is "".
func (m *Model) Constraints(family string) ([]backend.Constraint, error) {
	var out []backend.Constraint
	for _, c := range m.constraints {
		if family != "" && backend.Family(c.Name) != family {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Remove deletes variables and constraints by name. Every name must resolve
// to either a variable or a constraint.
func (m *Model) Remove(names ...string) error {
	for _, name := range names {
		if _, ok := m.varIndex[name]; ok {
			delete(m.varIndex, name)
			for i, v := range m.vars {
				if v.name == name {
					m.vars = append(m.vars[:i], m.vars[i+1:]...)
					break
				}
			}
			continue
		}
		found := false
		for i, c := range m.constraints {
			if c.Name == name {
				m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return errors.Wrapf(backend.ErrEntityNotFound, "remove %q", name)
		}
	}
	m.status = backend.StatusUnsolved
	return nil
}

// SetObjectiveCoefficient sets the objective coefficient of one variable.
func (m *Model) SetObjectiveCoefficient(name string, coeff float64) error {
	v, ok := m.varIndex[name]
	if !ok {
		return errors.Wrapf(backend.ErrEntityNotFound, "variable %q", name)
	}
	v.obj = coeff
	m.status = backend.StatusUnsolved
	return nil
}

// Attribute reads a numeric attribute of a variable.
func (m *Model) Attribute(name, attr string) (float64, error) {
	v, ok := m.varIndex[name]
	if !ok {
		return 0, errors.Wrapf(backend.ErrEntityNotFound, "variable %q", name)
	}
	switch attr {
	case "obj":
		return v.obj, nil
	case "lb":
		return v.lower, nil
	case "ub":
		return v.upper, nil
	case "x":
		return v.value, nil
	default:
		return 0, errors.Wrapf(backend.ErrAttributeNotFound, "attribute %q", attr)
	}
}

// SetAttribute writes a numeric attribute of a variable.
func (m *Model) SetAttribute(name, attr string, value float64) error {
	v, ok := m.varIndex[name]
	if !ok {
		return errors.Wrapf(backend.ErrEntityNotFound, "variable %q", name)
	}
	switch attr {
	case "obj":
		v.obj = value
	case "lb":
		v.lower = value
	case "ub":
		v.upper = value
	case "x":
		v.value = value
	default:
		return errors.Wrapf(backend.ErrAttributeNotFound, "attribute %q", attr)
	}
	m.status = backend.StatusUnsolved
	return nil
}
