package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/cli"
	"github.com/MihkelHunter/mkBoard/internal/commands"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/store"
)

// isolateEnv points configuration at a fresh directory and clears overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"MKBOARD_BACKEND",
		"MKBOARD_SQLITE_PATH",
		"MKBOARD_MYSQL_DSN",
		"MKBOARD_DATABASE_URL",
		"MKBOARD_BIND_ADDR",
		"MKBOARD_SHUTDOWN_TIMEOUT",
		"MKBOARD_METRICS_NAMESPACE",
		"MKBOARD_ALLOW_ANY_ORIGIN",
		"MKBOARD_LOG_LEVEL",
		"MKBOARD_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

// memoryFactory serves the same in-memory board to every command.
func memoryFactory(t *testing.T) cli.StoreFactory {
	t.Helper()
	st, err := board.Open(context.Background(), store.NewMemory())
	if err != nil {
		t.Fatalf("board.Open() error = %v", err)
	}
	return func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*board.Store, func(), error) {
		return st, func() {}, nil
	}
}

func run(d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	isolateEnv(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "unknowncmd")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: unknowncmd\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	isolateEnv(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "--quiet")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: --quiet\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	isolateEnv(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "list", "--bogus")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown flag: -bogus\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	isolateEnv(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "add", "--due")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "flag needs an argument") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_HelpAndVersionSkipStore(t *testing.T) {
	isolateEnv(t)
	failing := func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*board.Store, func(), error) {
		t.Fatal("store opened for a command that does not need it")
		return nil, nil, nil
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, failing)

	stdout, _, code := run(d, "help")
	if code != exitcode.Success || !strings.Contains(stdout, "Usage:") {
		t.Errorf("help: code %d, stdout %q", code, stdout)
	}
	stdout, _, code = run(d, "version")
	if code != exitcode.Success || !strings.HasPrefix(stdout, "mkboard ") {
		t.Errorf("version: code %d, stdout %q", code, stdout)
	}
}

func TestDispatcher_AddMoveList(t *testing.T) {
	isolateEnv(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "add", "--due", "2099-01-02", "--desc", "body", "Ship", "it")
	if code != exitcode.Success {
		t.Fatalf("add: code %d, stderr %q", code, stderr)
	}
	_, stderr, code = run(d, "mv", "1", "done")
	if code != exitcode.Success {
		t.Fatalf("move: code %d, stderr %q", code, stderr)
	}

	stdout, _, code := run(d)
	if code != exitcode.Success {
		t.Fatalf("default list: code %d", code)
	}
	done := strings.Index(stdout, "Done (1)")
	ship := strings.Index(stdout, "Ship it")
	if done < 0 || ship < done {
		t.Fatalf("task not listed under Done:\n%s", stdout)
	}
}

func TestDispatcher_StorageError(t *testing.T) {
	isolateEnv(t)
	broken := func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*board.Store, func(), error) {
		return nil, nil, errors.New("connection refused")
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, broken)

	_, stderr, code := run(d, "list")
	if code != exitcode.StorageError {
		t.Errorf("expected exit code %d, got %d", exitcode.StorageError, code)
	}
	if stderr != "error: storage error: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_ConfigError(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("backend = \"floppy\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, memoryFactory(t))

	_, stderr, code := run(d, "list", "--config", dir)
	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if !strings.HasPrefix(stderr, "error: config: backend must be one of") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestOpenStore_SQLitePersistsAcrossRuns(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "data", "board.db")
	t.Setenv("MKBOARD_BACKEND", "sqlite")
	t.Setenv("MKBOARD_SQLITE_PATH", dbPath)

	d := cli.NewDispatcher(commands.DefaultRegistry, nil)
	_, stderr, code := run(d, "add", "--quiet", "--due", "03/15/2099", "--desc", "d", "Persist me")
	if code != exitcode.Success {
		t.Fatalf("add: code %d, stderr %q", code, stderr)
	}

	// A fresh dispatcher reopens the database file.
	d = cli.NewDispatcher(commands.DefaultRegistry, nil)
	stdout, stderr, code := run(d, "list", "--json")
	if code != exitcode.Success {
		t.Fatalf("list: code %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, `"title": "Persist me"`) || !strings.Contains(stdout, `"dueDate": "2099-03-15"`) {
		t.Fatalf("persisted task missing:\n%s", stdout)
	}
}
