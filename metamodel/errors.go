package metamodel

import "github.com/pkg/errors"

// ErrMissingFunctionName is returned when Invoke is called with an empty name.
var ErrMissingFunctionName = errors.New("a function name must be provided")

// ErrFunctionNotFound is returned when no operation resolves for a name.
var ErrFunctionNotFound = errors.New("function not found")

// ErrModuleNotAttached is returned when a qualified name references a module
// that was never attached to the wrapper.
var ErrModuleNotAttached = errors.New("module not attached")

// ErrModuleLoad is returned when Attach cannot resolve a module name in the
// package registry.
var ErrModuleLoad = errors.New("module not registered")

// ErrInvocation is returned when an operation is called with arguments it
// cannot accept (wrong count or wrong type).
var ErrInvocation = errors.New("invalid arguments")

// ErrNoBackend is returned when a wrapper is constructed without a model
// backend.
var ErrNoBackend = errors.New("no model backend configured")
