// Package metamodel wraps a solver model with a recorded transformation
// history. Every mutating operation dispatched through a wrapper is appended
// to its command log; the log, together with the rest of the wrapper state,
// can be persisted as a snapshot and replayed later against a freshly loaded
// model.
package metamodel

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/AndrewBMartin/MetaModel/backend"
	"github.com/AndrewBMartin/MetaModel/snapshot"
)

// MetaModel wraps a backend model together with the state needed to record
// and replay its transformation history. A wrapper exclusively owns its
// model handle; it is not safe for concurrent use.
type MetaModel struct {
	modelName   string
	filename    string
	snapshotLoc string
	solveCount  int
	optimal     bool
	description string
	dateCreated time.Time

	moduleNames []string
	modules     map[string]Module
	log         []snapshot.LogEntry

	model    backend.Model
	backend  backend.Backend
	store    *snapshot.Store
	builtins Module
	now      func() time.Time
	logger   zerolog.Logger

	// Module names staged by WithModules, attached by the constructors
	// once the wrapper is otherwise ready.
	attachNames []string
}

// Option configures a wrapper at construction time.
type Option func(*MetaModel)

// WithBackend sets the model backend. A backend is required.
func WithBackend(b backend.Backend) Option {
	return func(m *MetaModel) { m.backend = b }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *MetaModel) { m.logger = logger }
}

// WithClock overrides the time source used for filename stems.
func WithClock(now func() time.Time) Option {
	return func(m *MetaModel) { m.now = now }
}

// WithSnapshotDir sets the directory snapshots are written to.
// Defaults to the current working directory.
func WithSnapshotDir(dir string) Option {
	return func(m *MetaModel) { m.store = snapshot.NewStore(dir) }
}

// WithDescription sets the free-text model description.
func WithDescription(desc string) Option {
	return func(m *MetaModel) { m.description = desc }
}

// WithModules attaches the named collaborator modules after construction.
// Each name must have been registered with RegisterModule.
func WithModules(names ...string) Option {
	return func(m *MetaModel) { m.attachNames = append(m.attachNames, names...) }
}

func newWrapper(opts []Option) *MetaModel {
	m := &MetaModel{
		modules:  make(map[string]Module),
		now:      time.Now,
		logger:   zerolog.Nop(),
		store:    snapshot.NewStore(""),
		builtins: builtinOperations(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New creates a wrapper for the model stored under modelName, loading it
// through the configured backend.
func New(modelName string, opts ...Option) (*MetaModel, error) {
	if modelName == "" {
		return nil, errors.New("a model file name or a snapshot must be supplied")
	}

	m := newWrapper(opts)
	if m.backend == nil {
		return nil, ErrNoBackend
	}

	model, err := m.backend.Load(modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "load model %q", modelName)
	}

	m.modelName = modelName
	m.model = model
	m.dateCreated = m.now()
	m.UpdateFilename()

	if err := m.AttachAll(m.attachNames); err != nil {
		return nil, err
	}
	m.attachNames = nil

	m.logger.Info().Str("model", modelName).Msg("model loaded")
	return m, nil
}

// FromSnapshot restores a wrapper from a snapshot document: the persisted
// fields are read back, the model is reloaded from its identifier, the
// named modules are re-attached, and the command log is replayed in order
// with recording disabled. The solve count is incremented before replay so
// the restored wrapper never overwrites the snapshot it came from.
func FromSnapshot(location string, opts ...Option) (*MetaModel, error) {
	m := newWrapper(opts)
	if m.backend == nil {
		return nil, ErrNoBackend
	}

	doc, err := m.store.Load(location)
	if err != nil {
		return nil, err
	}

	m.modelName = doc.ModelName
	m.filename = doc.Filename
	m.snapshotLoc = doc.Location
	m.solveCount = doc.SolveCount
	m.optimal = doc.Optimal
	m.description = doc.Description
	m.dateCreated = doc.DateCreated
	m.log = append(m.log, doc.FunctionList...)

	model, err := m.backend.Load(doc.ModelName)
	if err != nil {
		return nil, errors.Wrapf(err, "reload model %q", doc.ModelName)
	}
	m.model = model

	if err := m.AttachAll(doc.ModuleNames); err != nil {
		return nil, err
	}
	if err := m.AttachAll(m.attachNames); err != nil {
		return nil, err
	}
	m.attachNames = nil

	m.solveCount++
	m.UpdateFilename()

	for _, entry := range doc.FunctionList {
		if _, err := m.Invoke(entry.Name, entry.Args, entry.Kwargs, false); err != nil {
			return nil, errors.Wrapf(err, "replay %q", entry.Name)
		}
	}

	m.logger.Info().
		Str("snapshot", location).
		Int("replayed", len(doc.FunctionList)).
		Msg("wrapper restored from snapshot")
	return m, nil
}

// Attach resolves a registered module by name and makes its operations
// available to the dispatcher. Attachment order is lookup order for
// unqualified names.
func (m *MetaModel) Attach(name string) error {
	mod, ok := lookupModule(name)
	if !ok {
		return errors.Wrap(ErrModuleLoad, name)
	}

	if _, attached := m.modules[name]; !attached {
		m.moduleNames = append(m.moduleNames, name)
	}
	m.modules[name] = mod
	return nil
}

// AttachAll attaches every named module in order.
func (m *MetaModel) AttachAll(names []string) error {
	for _, name := range names {
		if err := m.Attach(name); err != nil {
			return err
		}
	}
	return nil
}

// Reattach re-resolves an already-attached module from the registry,
// picking up a re-registered implementation. Unattached names are attached.
func (m *MetaModel) Reattach(name string) error {
	return m.Attach(name)
}

// UpdateFilename recomputes the derived output stem from the model name,
// the current date and the solve count. Called after every solve so
// repeated solves never overwrite a prior snapshot.
func (m *MetaModel) UpdateFilename() {
	base := filepath.Base(m.modelName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	m.filename = fmt.Sprintf("%s_%s_%d", base, m.now().Format("20060102"), m.solveCount)
}

// TakeSnapshot persists the wrapper state and returns the snapshot location.
func (m *MetaModel) TakeSnapshot() (string, error) {
	doc := snapshot.Document{
		ModelName:    m.modelName,
		Filename:     m.filename,
		SolveCount:   m.solveCount,
		Optimal:      m.optimal,
		Description:  m.description,
		DateCreated:  m.dateCreated,
		ModuleNames:  append([]string{}, m.moduleNames...),
		FunctionList: m.Log(),
	}

	location, err := m.store.Save(doc)
	if err != nil {
		return "", errors.Wrap(err, "take snapshot")
	}
	m.snapshotLoc = location

	m.logger.Info().Str("snapshot", location).Msg("snapshot saved")
	return location, nil
}

// Model returns the wrapped backend model.
func (m *MetaModel) Model() backend.Model { return m.model }

// ModelName returns the identifier the model was loaded from.
func (m *MetaModel) ModelName() string { return m.modelName }

// Filename returns the derived output stem.
func (m *MetaModel) Filename() string { return m.filename }

// SnapshotLocation returns the location of the last snapshot taken or
// restored, or "" if none.
func (m *MetaModel) SnapshotLocation() string { return m.snapshotLoc }

// SolveCount returns the number of solve attempts.
func (m *MetaModel) SolveCount() int { return m.solveCount }

// IncrementSolveCount bumps the solve counter. Called by solve-like
// operations after a solve attempt.
func (m *MetaModel) IncrementSolveCount() { m.solveCount++ }

// Optimal reports whether the last solve reached optimality.
func (m *MetaModel) Optimal() bool { return m.optimal }

// SetOptimal records whether the last solve reached optimality.
func (m *MetaModel) SetOptimal(optimal bool) { m.optimal = optimal }

// Description returns the free-text model description.
func (m *MetaModel) Description() string { return m.description }

// SetDescription sets the free-text model description.
func (m *MetaModel) SetDescription(desc string) { m.description = desc }

// ModuleNames returns the attached module names in attachment order.
func (m *MetaModel) ModuleNames() []string {
	return append([]string{}, m.moduleNames...)
}

// Log returns a copy of the command log.
func (m *MetaModel) Log() []snapshot.LogEntry {
	out := make([]snapshot.LogEntry, len(m.log))
	copy(out, m.log)
	return out
}

// Logger returns the wrapper's logger for collaborator operations to use.
func (m *MetaModel) Logger() zerolog.Logger { return m.logger }
