// Command metamodel drives a model wrapper from the command line: apply a
// plan of operations to a model, replay a stored snapshot, or manage the
// snapshot directory.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AndrewBMartin/MetaModel/analysis"
	"github.com/AndrewBMartin/MetaModel/backend/memory"
	"github.com/AndrewBMartin/MetaModel/internal/cli"
	"github.com/AndrewBMartin/MetaModel/internal/logging"
	"github.com/AndrewBMartin/MetaModel/internal/plan"
	"github.com/AndrewBMartin/MetaModel/metamodel"
	"github.com/AndrewBMartin/MetaModel/snapshot"
)

func main() {
	// A .env next to the binary may carry MM_SNAPSHOT_DIR / MM_LOG_LEVEL.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Environ(), os.Stdout, os.Stderr))
}

// run orchestrates the full execution flow and returns an exit code.
// Separated from main() to enable testing.
func run(args, environ []string, stdout, stderr io.Writer) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	logger := logging.New(stderr, environ, cmd.Verbose)

	snapshotDir := cmd.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = snapshot.ResolveDir(environ)
	}

	switch cmd.Subcommand {
	case cli.SubcommandRun:
		return runPlan(cmd, snapshotDir, logger, stdout, stderr)
	case cli.SubcommandReplay:
		return runReplay(cmd, snapshotDir, logger, stdout, stderr)
	default:
		return runSnapshots(cmd, snapshotDir, stdout, stderr)
	}
}

func runPlan(cmd cli.Command, snapshotDir string, logger zerolog.Logger, stdout, stderr io.Writer) int {
	var p plan.Plan
	if cmd.PlanPath != "" {
		loaded, err := plan.Load(cmd.PlanPath)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		p = loaded
	}

	modelPath := cmd.ModelPath
	if modelPath == "" {
		modelPath = p.Model
	}
	if modelPath == "" {
		fmt.Fprintln(stderr, "Error: a model is required (--model or a plan with a model)")
		return 1
	}

	description := cmd.Description
	if description == "" {
		description = p.Description
	}

	modules := p.Modules
	if len(modules) == 0 {
		modules = []string{analysis.ModuleName}
	}

	m, err := metamodel.New(modelPath,
		metamodel.WithBackend(memory.New()),
		metamodel.WithSnapshotDir(snapshotDir),
		metamodel.WithLogger(logger),
		metamodel.WithModules(modules...),
		metamodel.WithDescription(description),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	for i, step := range p.Steps {
		if _, err := m.Invoke(step.Call, step.Args, step.Kwargs, true); err != nil {
			fmt.Fprintf(stderr, "Error: step %d (%s): %v\n", i+1, step.Call, err)
			return 2
		}
	}

	location, err := m.TakeSnapshot()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	printState(stdout, m)
	fmt.Fprintf(stdout, "Snapshot saved as %s\n", location)
	return 0
}

func runReplay(cmd cli.Command, snapshotDir string, logger zerolog.Logger, stdout, stderr io.Writer) int {
	if len(cmd.Args) != 1 {
		fmt.Fprintln(stderr, "Error: usage: metamodel replay <snapshot.json>")
		return 1
	}

	m, err := metamodel.FromSnapshot(cmd.Args[0],
		metamodel.WithBackend(memory.New()),
		metamodel.WithSnapshotDir(snapshotDir),
		metamodel.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	printState(stdout, m)
	return 0
}

func runSnapshots(cmd cli.Command, snapshotDir string, stdout, stderr io.Writer) int {
	store := snapshot.NewStore(snapshotDir)

	action := "list"
	if len(cmd.Args) > 0 {
		action = cmd.Args[0]
	}

	switch action {
	case "list":
		summaries, err := store.List()
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 2
		}
		if len(summaries) == 0 {
			fmt.Fprintln(stdout, "No snapshots found.")
			return 0
		}
		for _, s := range summaries {
			fmt.Fprintf(stdout, "%s  model=%s solves=%d created=%s\n",
				s.Location, s.ModelName, s.SolveCount, s.DateCreated.Format(time.DateOnly))
		}
		return 0

	case "show":
		if len(cmd.Args) != 2 {
			fmt.Fprintln(stderr, "Error: usage: metamodel snapshots show <location>")
			return 1
		}
		doc, err := store.Load(cmd.Args[1])
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 2
		}
		fmt.Fprintf(stdout, "model:       %s\n", doc.ModelName)
		fmt.Fprintf(stdout, "stem:        %s\n", doc.Filename)
		fmt.Fprintf(stdout, "solves:      %d\n", doc.SolveCount)
		fmt.Fprintf(stdout, "optimal:     %t\n", doc.Optimal)
		fmt.Fprintf(stdout, "description: %s\n", doc.Description)
		fmt.Fprintf(stdout, "modules:     %v\n", doc.ModuleNames)
		for _, entry := range doc.FunctionList {
			fmt.Fprintf(stdout, "  %s args=%v kwargs=%v\n", entry.Name, entry.Args, entry.Kwargs)
		}
		return 0

	case "prune":
		if len(cmd.Args) != 2 {
			fmt.Fprintln(stderr, "Error: usage: metamodel snapshots prune <days>")
			return 1
		}
		days, err := strconv.Atoi(cmd.Args[1])
		if err != nil || days < 0 {
			fmt.Fprintf(stderr, "Error: invalid day count %q\n", cmd.Args[1])
			return 1
		}
		deleted, err := store.Prune(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 2
		}
		fmt.Fprintf(stdout, "Deleted %d snapshot(s).\n", deleted)
		return 0

	default:
		fmt.Fprintf(stderr, "Error: unknown snapshots action %q\n", action)
		return 1
	}
}

func printState(w io.Writer, m *metamodel.MetaModel) {
	fmt.Fprintf(w, "model:      %s\n", m.ModelName())
	fmt.Fprintf(w, "stem:       %s\n", m.Filename())
	fmt.Fprintf(w, "solves:     %d\n", m.SolveCount())
	fmt.Fprintf(w, "optimal:    %t\n", m.Optimal())
	fmt.Fprintf(w, "operations: %d recorded\n", len(m.Log()))
}
