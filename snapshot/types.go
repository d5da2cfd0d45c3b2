// Package snapshot persists wrapper state as JSON documents and restores it.
// A document holds everything needed to rebuild a wrapper except the live
// model handle and the attached module objects: those are reconstructed from
// the model identifier and the module names on restore.
package snapshot

import "time"

// LogEntry records one dispatched operation: the name it was invoked under
// plus the positional and keyword arguments it was given. Values must be
// JSON-compatible so the entry can be replayed from a document.
type LogEntry struct {
	Name   string         `json:"name"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// Document is the explicit serializable form of wrapper state. Exactly these
// fields are persisted; the model handle and module registries never are.
type Document struct {
	ModelName    string     `json:"model_name"`    // Model identifier used to reload
	Filename     string     `json:"filename"`      // Derived output stem
	SolveCount   int        `json:"solve_count"`   // Number of solve attempts
	Optimal      bool       `json:"optimal"`       // Last solve reached optimality
	Description  string     `json:"model_description"`
	DateCreated  time.Time  `json:"date_created"`
	ModuleNames  []string   `json:"module_names"`  // Attached collaborator modules, in order
	FunctionList []LogEntry `json:"function_list"` // Command log, in dispatch order
	Location     string     `json:"json_file"`     // Self-referential snapshot path
}

// Summary is a lightweight view for listing snapshots.
type Summary struct {
	Location    string    `json:"json_file"`
	ModelName   string    `json:"model_name"`
	SolveCount  int       `json:"solve_count"`
	DateCreated time.Time `json:"date_created"`
}
