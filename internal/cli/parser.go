// Package cli parses metamodel command-line arguments.
package cli

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrNoSubcommand is returned when no subcommand is provided.
var ErrNoSubcommand = errors.New("missing subcommand: usage: metamodel <run|replay|snapshots> [flags] [args...]")

// ErrMissingFlagValue is returned when a flag requires a value but none is provided.
var ErrMissingFlagValue = errors.New("flag requires a value")

// ErrUnknownFlag is returned for flags the subcommand doesn't understand.
var ErrUnknownFlag = errors.New("unknown flag")

// Subcommand represents the CLI subcommand.
type Subcommand string

const (
	SubcommandRun       Subcommand = "run"
	SubcommandReplay    Subcommand = "replay"
	SubcommandSnapshots Subcommand = "snapshots"
)

// Command represents the parsed CLI input.
type Command struct {
	Subcommand Subcommand

	// run flags
	ModelPath   string // --model <path>
	PlanPath    string // --plan <path>
	Description string // --description <text>

	// shared flags
	SnapshotDir string // --snapshot-dir <path>
	Verbose     bool   // --verbose

	// Positional arguments after the subcommand and flags:
	// replay <location>; snapshots [list|show <location>|prune <days>]
	Args []string
}

// ParseArgs parses CLI arguments into a Command. It expects args to be
// os.Args[1:] (excluding the program name).
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	sub := Subcommand(args[0])
	switch sub {
	case SubcommandRun, SubcommandReplay, SubcommandSnapshots:
	default:
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{Subcommand: sub}

	i := 1
	for i < len(args) {
		arg := args[i]

		if !strings.HasPrefix(arg, "--") {
			cmd.Args = append(cmd.Args, arg)
			i++
			continue
		}

		flagName := strings.TrimPrefix(arg, "--")
		switch flagName {
		case "model":
			if i+1 >= len(args) {
				return Command{}, errors.Wrap(ErrMissingFlagValue, arg)
			}
			i++
			cmd.ModelPath = args[i]
		case "plan":
			if i+1 >= len(args) {
				return Command{}, errors.Wrap(ErrMissingFlagValue, arg)
			}
			i++
			cmd.PlanPath = args[i]
		case "description":
			if i+1 >= len(args) {
				return Command{}, errors.Wrap(ErrMissingFlagValue, arg)
			}
			i++
			cmd.Description = args[i]
		case "snapshot-dir":
			if i+1 >= len(args) {
				return Command{}, errors.Wrap(ErrMissingFlagValue, arg)
			}
			i++
			cmd.SnapshotDir = args[i]
		case "verbose":
			cmd.Verbose = true
		default:
			return Command{}, errors.Wrap(ErrUnknownFlag, arg)
		}
		i++
	}

	return cmd, nil
}
