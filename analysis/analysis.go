// Package analysis is the collaborator module used with forest-planning
// models. Its operations follow the collaborator contract: the wrapper is
// the first argument, positional and keyword arguments follow and must be
// JSON-compatible.
//
// The module registers itself under the name "analysis"; importing the
// package is enough to make it attachable.
package analysis

import (
	"github.com/pkg/errors"

	"github.com/AndrewBMartin/MetaModel/backend"
	"github.com/AndrewBMartin/MetaModel/metamodel"
)

// ModuleName is the name the module is registered and attached under.
const ModuleName = "analysis"

// Variable families making up the planning horizon. Harvest variables carry
// the authoritative period index.
var (
	horizonVariableFamilies   = []string{"harv", "age"}
	horizonConstraintFamilies = []string{"harv", "age", "env"}
)

func init() {
	metamodel.RegisterModule(ModuleName, Module())
}

// Module returns the operation registry. Solve is exempt from the command
// log because it snapshots its own effects and replaying a restored log
// must not trigger extra solves.
func Module() metamodel.Module {
	return metamodel.Module{
		"solve":                 {Func: Solve, NoRecord: true},
		"remove_last_period":    {Func: RemoveLastPeriod},
		"zero_objective_coeffs": {Func: ZeroObjectiveCoeffs},
		"set_variables_attr":    {Func: SetVariablesAttr},
	}
}

// Solve optimizes the wrapped model, records the resulting status on the
// wrapper, takes a snapshot, and advances the solve counter and filename
// stem. With a "log" kwarg naming a file, the solution values are exported
// there as delimited text.
func Solve(m *metamodel.MetaModel, _ []any, kwargs map[string]any) (any, error) {
	model := m.Model()

	if err := model.Optimize(); err != nil {
		return nil, errors.Wrap(err, "optimize")
	}

	status := model.Status()
	m.SetOptimal(status == backend.StatusOptimal)

	location, err := m.TakeSnapshot()
	if err != nil {
		return nil, err
	}

	m.IncrementSolveCount()
	m.UpdateFilename()

	logger := m.Logger()
	logger.Info().
		Str("status", status.String()).
		Float64("objective", model.ObjectiveValue()).
		Str("snapshot", location).
		Msg("solve finished")

	if target, ok := kwargs["log"]; ok {
		path, ok := target.(string)
		if !ok {
			return nil, errors.Wrap(metamodel.ErrInvocation, "log kwarg must be a file name")
		}
		if err := WriteSolution(m, path); err != nil {
			return nil, err
		}
	}

	return status.String(), nil
}

// RemoveLastPeriod shortens the planning horizon by one period: it finds the
// maximum trailing period index among the harvest variables, then removes
// every horizon variable and constraint tagged with that index.
func RemoveLastPeriod(m *metamodel.MetaModel, _ []any, _ map[string]any) (any, error) {
	model := m.Model()

	harvest, err := model.Variables("harv")
	if err != nil {
		return nil, err
	}
	if len(harvest) == 0 {
		return nil, errors.New("model has no harvest variables")
	}

	maxPeriod, err := backend.TrailingIndex(harvest[0].Name)
	if err != nil {
		return nil, err
	}
	for _, v := range harvest[1:] {
		period, err := backend.TrailingIndex(v.Name)
		if err != nil {
			return nil, err
		}
		if period > maxPeriod {
			maxPeriod = period
		}
	}

	var doomed []string
	for _, family := range horizonVariableFamilies {
		vars, err := model.Variables(family)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			period, err := backend.TrailingIndex(v.Name)
			if err != nil {
				return nil, err
			}
			if period == maxPeriod {
				doomed = append(doomed, v.Name)
			}
		}
	}
	for _, family := range horizonConstraintFamilies {
		cons, err := model.Constraints(family)
		if err != nil {
			return nil, err
		}
		for _, c := range cons {
			period, err := backend.TrailingIndex(c.Name)
			if err != nil {
				return nil, err
			}
			if period == maxPeriod {
				doomed = append(doomed, c.Name)
			}
		}
	}

	if err := model.Remove(doomed...); err != nil {
		return nil, err
	}

	logger := m.Logger()
	logger.Info().
		Float64("period", maxPeriod).
		Int("removed", len(doomed)).
		Msg("planning horizon shortened")
	return len(doomed), nil
}

// ZeroObjectiveCoeffs sets every variable's objective coefficient to zero.
func ZeroObjectiveCoeffs(m *metamodel.MetaModel, _ []any, _ map[string]any) (any, error) {
	model := m.Model()

	vars, err := model.Variables("")
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		if err := model.SetObjectiveCoefficient(v.Name, 0); err != nil {
			return nil, err
		}
	}
	return len(vars), nil
}

// SetVariablesAttr sets attribute attr to val for every variable in the
// given name family. Positional arguments: (attr, val, name).
func SetVariablesAttr(m *metamodel.MetaModel, args []any, _ map[string]any) (any, error) {
	if len(args) != 3 {
		return nil, errors.Wrap(metamodel.ErrInvocation, "set_variables_attr takes (attr, val, name)")
	}

	attr, ok := args[0].(string)
	if !ok {
		return nil, errors.Wrap(metamodel.ErrInvocation, "attr must be a string")
	}
	val, err := toFloat(args[1])
	if err != nil {
		return nil, err
	}
	family, ok := args[2].(string)
	if !ok {
		return nil, errors.Wrap(metamodel.ErrInvocation, "name must be a string")
	}

	model := m.Model()
	vars, err := model.Variables(family)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		if err := model.SetAttribute(v.Name, attr, val); err != nil {
			return nil, err
		}
	}
	return len(vars), nil
}

// toFloat coerces the numeric types a value can arrive as: Go ints from
// direct calls, float64 from a replayed JSON log.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, errors.Wrapf(metamodel.ErrInvocation, "val must be numeric, got %T", v)
	}
}
