package metamodel

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/AndrewBMartin/MetaModel/snapshot"
)

// Invoke resolves name to an operation, calls it with the wrapper as its
// first argument, and on success appends the call to the command log unless
// record is false or the operation is marked NoRecord.
//
// Qualified names ("module.operation") are resolved against the named
// attached module only. Unqualified names search the attached modules in
// attachment order, then the wrapper's built-in operations. A failed
// operation surfaces its error before any log append, so the log only ever
// holds operations that completed.
func (m *MetaModel) Invoke(name string, args []any, kwargs map[string]any, record bool) (any, error) {
	if name == "" {
		return nil, ErrMissingFunctionName
	}

	op, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	result, err := op.Func(m, args, kwargs)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	if record && !op.NoRecord {
		m.log = append(m.log, snapshot.LogEntry{Name: name, Args: args, Kwargs: kwargs})
	}

	m.logger.Debug().
		Str("operation", name).
		Bool("recorded", record && !op.NoRecord).
		Msg("operation dispatched")
	return result, nil
}

func (m *MetaModel) resolve(name string) (Operation, error) {
	// Qualified names avoid namespace collisions between modules and are
	// the preferred form.
	if module, opName, ok := strings.Cut(name, "."); ok {
		mod, attached := m.modules[module]
		if !attached {
			return Operation{}, errors.Wrap(ErrModuleNotAttached, module)
		}
		op, found := mod[opName]
		if !found {
			return Operation{}, errors.Wrapf(ErrFunctionNotFound, "%s in module %s", opName, module)
		}
		return op, nil
	}

	for _, moduleName := range m.moduleNames {
		if op, found := m.modules[moduleName][name]; found {
			return op, nil
		}
	}

	if op, found := m.builtins[name]; found {
		return op, nil
	}

	return Operation{}, errors.Wrap(ErrFunctionNotFound, name)
}

// builtinOperations are the operations every wrapper exposes without any
// module attached. take_snapshot writes its own state and is exempt from
// recording; description is a read-only accessor and never recorded.
func builtinOperations() Module {
	return Module{
		"take_snapshot": {
			NoRecord: true,
			Func: func(m *MetaModel, _ []any, _ map[string]any) (any, error) {
				return m.TakeSnapshot()
			},
		},
		"set_description": {
			Func: func(m *MetaModel, args []any, _ map[string]any) (any, error) {
				if len(args) != 1 {
					return nil, errors.Wrap(ErrInvocation, "set_description takes one argument")
				}
				desc, ok := args[0].(string)
				if !ok {
					return nil, errors.Wrap(ErrInvocation, "set_description takes a string")
				}
				m.SetDescription(desc)
				return nil, nil
			},
		},
		"description": {
			NoRecord: true,
			Func: func(m *MetaModel, _ []any, _ map[string]any) (any, error) {
				return m.Description(), nil
			},
		},
	}
}
