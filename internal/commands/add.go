package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	due         string
	description string
}

// SetFields sets the flag values (for testing).
func (c *AddCmd) SetFields(due, description string) {
	c.due = due
	c.description = description
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"new"} }
func (c *AddCmd) Synopsis() string  { return "Create a task in the To Do lane" }
func (c *AddCmd) Usage() string {
	return "mkboard add --due <date> --desc <text> <title...>"
}
func (c *AddCmd) NeedsStore() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.due, "d", "", "")
	fs.StringVar(&c.description, "desc", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if err := board.ValidateInput(title, c.description, c.due); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := st.Add(ctx, title, c.description, c.due)
	if err != nil {
		return storeErrorCode(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "added #%d %s (due %s)\n", task.ID, task.Title, task.DueDate)
	}
	return exitcode.Success
}
