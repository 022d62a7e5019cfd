package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "mkboard help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  mkboard                                        List tasks by lane
  mkboard list [--status <lane>] [--json]        List tasks by lane
  mkboard add --due <date> --desc <text> <title...>
  mkboard move <id> todo|in-progress|done
  mkboard rm <id>
  mkboard export [--format json|csv|pdf] [--out <file>]
  mkboard board                                  Interactive terminal board
  mkboard help
  mkboard version

Dates are YYYY-MM-DD or MM/DD/YYYY.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Exit codes: 0 ok, 1 usage or input error, 2 config error, 3 storage error.
`
