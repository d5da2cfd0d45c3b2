package metamodel

import "sync"

// OperationFunc is the contract every collaborator function follows: the
// wrapper is always the first argument, followed by the caller-supplied
// positional and keyword arguments. Arguments must be JSON-compatible so
// recorded calls can be replayed from a snapshot.
type OperationFunc func(m *MetaModel, args []any, kwargs map[string]any) (any, error)

// Operation is one named entry of a collaborator module. NoRecord marks
// operations that must never be appended to the command log: solve-like
// operations that snapshot their own effects, and read-only accessors.
// The flag replaces name-based exemptions, which silently excluded any
// operation whose name happened to contain "solve".
type Operation struct {
	Func     OperationFunc
	NoRecord bool
}

// Module is a registry of named operations supplied by a collaborator
// package.
type Module map[string]Operation

// The package registry maps module names to modules. Collaborator packages
// register themselves at init time, the same way database/sql drivers do;
// a wrapper then attaches modules by name, which is what lets a snapshot
// restore re-attach them from their recorded names alone.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Module)
)

// RegisterModule makes a module available for attachment under name.
// Registering the same name twice replaces the earlier module, which is
// what a reattach after code reload expects.
func RegisterModule(name string, mod Module) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = mod
}

func lookupModule(name string) (Module, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	mod, ok := registry[name]
	return mod, ok
}
