// Package commands provides the mkboard command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command reads or writes the board.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command and returns the exit code.
	// st is nil if NeedsStore() returns false.
	Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int
}

// Now is the clock used for due date arithmetic.
var Now = time.Now
