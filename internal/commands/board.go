package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/tui"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd opens the interactive terminal board.
type BoardCmd struct{}

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return []string{"tui"} }
func (c *BoardCmd) Synopsis() string  { return "Open the interactive terminal board" }
func (c *BoardCmd) Usage() string     { return "mkboard board" }
func (c *BoardCmd) NeedsStore() bool  { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int {
	if err := tui.Run(ctx, st); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.StorageError
	}
	return exitcode.Success
}
