// Package cli parses the mkboard command line and dispatches to commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/commands"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/logging"
	"github.com/MihkelHunter/mkBoard/internal/store"
)

// StoreFactory opens the board for a command. The returned func releases the
// underlying storage.
type StoreFactory func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*board.Store, func(), error)

// OpenStore is the StoreFactory used by the binary: it connects the configured
// key-value backend and loads the board from it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*board.Store, func(), error) {
	kv, err := store.Open(ctx, store.Options{
		Backend:     cfg.Backend,
		SQLitePath:  cfg.SQLitePath,
		MySQLDSN:    cfg.MySQLDSN,
		PostgresURL: cfg.DatabaseURL,
	})
	if err != nil {
		return nil, nil, err
	}
	st, err := board.Open(ctx, kv, board.WithLogger(logger))
	if err != nil {
		_ = kv.Close()
		return nil, nil, err
	}
	return st, func() {
		if err := kv.Close(); err != nil {
			logger.Warn("close storage", "err", err)
		}
	}, nil
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  StoreFactory
}

func NewDispatcher(registry *commands.Registry, factory StoreFactory) *Dispatcher {
	if factory == nil {
		factory = OpenStore
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list the board
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]
	// Flags require a command in front of them
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configDir string
	var quiet, debug bool
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return flagError(errOut, err)
	}
	positional := fs.Args()

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: config: %v\n", err)
		return exitcode.ConfigError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger := logging.New(errOut, logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Prefix: "mkboard",
	})

	var st *board.Store
	if cmd.NeedsStore() {
		var closeStore func()
		st, closeStore, err = d.factory(ctx, &cfg, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: storage error: %v\n", err)
			return exitcode.StorageError
		}
		defer closeStore()
	}

	logger.Debug("running command", "command", cmd.Name(), "args", positional, "backend", cfg.Backend)
	return cmd.Run(ctx, &cfg, st, positional, out, errOut)
}

// flagError turns a flag package error into a one-line message.
func flagError(errOut io.Writer, err error) int {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		fmt.Fprintf(errOut, "error: %s\n", msg)
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", strings.TrimPrefix(msg, "flag provided but not defined: "))
	default:
		fmt.Fprintf(errOut, "error: %s\n", msg)
	}
	return exitcode.UserError
}
