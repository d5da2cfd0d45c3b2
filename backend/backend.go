// Package backend defines the model-backend abstraction the wrapper core is
// written against. A Backend loads a named model; a Model exposes the small
// set of editing and solving operations the collaborator functions need.
// Concrete solver integrations (or the in-memory test backend) live in
// subpackages.
package backend

import "github.com/pkg/errors"

// Status describes the solve state of a model.
type Status int

const (
	StatusUnsolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusUnsolved:
		return "unsolved"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// ErrAttributeNotFound is returned when a model attribute doesn't exist.
var ErrAttributeNotFound = errors.New("attribute not found")

// ErrEntityNotFound is returned when a variable or constraint doesn't exist.
var ErrEntityNotFound = errors.New("entity not found")

// Variable is a read view of a model variable.
type Variable struct {
	Name  string  // Structured name, e.g. "harv(aspen,north,3)"
	Obj   float64 // Objective coefficient
	Lower float64 // Lower bound
	Upper float64 // Upper bound
	Value float64 // Solution value from the last optimize
}

// Constraint is a read view of a model constraint.
type Constraint struct {
	Name  string   // Structured name, e.g. "harv(north,3)"
	Vars  []string // Names of the variables appearing in the row
	Sense string   // "<=", ">=" or "="
	RHS   float64
}

// Backend loads models by identifier. The identifier is opaque to the
// wrapper core; only the backend knows how to interpret it.
type Backend interface {
	Load(name string) (Model, error)
}

// Model is the editing surface the wrapper and its collaborator operations
// use. Implementations own the actual optimization engine, which is out of
// scope here.
type Model interface {
	// Optimize solves the model and updates variable values and status.
	Optimize() error

	// Status reports the solve state after the last Optimize.
	Status() Status

	// ObjectiveValue returns the objective value of the last solution.
	ObjectiveValue() float64

	// Variables returns the variables whose name family matches family,
	// or all variables when family is empty.
	Variables(family string) ([]Variable, error)

	// Constraints returns the constraints whose name family matches family,
	// or all constraints when family is empty.
	Constraints(family string) ([]Constraint, error)

	// Remove deletes variables and constraints by name.
	// Returns ErrEntityNotFound if any name is unknown.
	Remove(names ...string) error

	// SetObjectiveCoefficient sets the objective coefficient of one variable.
	SetObjectiveCoefficient(name string, coeff float64) error

	// Attribute reads a named numeric attribute ("obj", "lb", "ub", "x")
	// of a variable. Returns ErrAttributeNotFound for unknown attributes.
	Attribute(name, attr string) (float64, error)

	// SetAttribute writes a named numeric attribute of a variable.
	SetAttribute(name, attr string, value float64) error
}
