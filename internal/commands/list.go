package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/export"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. It is also what `mkboard` runs with no
// arguments.
type ListCmd struct {
	status string
	asJSON bool
}

// SetOptions sets the flag values (for testing).
func (c *ListCmd) SetOptions(status string, asJSON bool) {
	c.status = status
	c.asJSON = asJSON
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks grouped by lane" }
func (c *ListCmd) Usage() string     { return "mkboard list [--status <lane>] [--json]" }
func (c *ListCmd) NeedsStore() bool  { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.BoolVar(&c.asJSON, "json", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	lanes := st.Lanes()
	if c.status != "" {
		status, err := board.ParseStatus(c.status)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		for _, lane := range lanes {
			if lane.Status == status {
				lanes = []board.Lane{lane}
				break
			}
		}
	}

	today := Now()
	if c.asJSON {
		var tasks []board.Task
		for _, lane := range lanes {
			tasks = append(tasks, lane.Tasks...)
		}
		data, err := export.Export(tasks, export.FormatJSON, today)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.StorageError
		}
		_, _ = out.Write(data)
		return exitcode.Success
	}

	styles := newListStyles(out)
	for _, lane := range lanes {
		formatLane(out, styles, lane, today)
	}
	return exitcode.Success
}
