package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
	"github.com/MihkelHunter/mkBoard/internal/export"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd implements the export command.
type ExportCmd struct {
	format string
	path   string
}

// SetOptions sets the flag values (for testing).
func (c *ExportCmd) SetOptions(format, path string) {
	c.format = format
	c.path = path
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Write the board as JSON, CSV or PDF" }
func (c *ExportCmd) Usage() string {
	return "mkboard export [--format json|csv|pdf] [--out <file>]"
}
func (c *ExportCmd) NeedsStore() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", export.FormatJSON, "")
	fs.StringVar(&c.format, "f", export.FormatJSON, "")
	fs.StringVar(&c.path, "out", "", "")
	fs.StringVar(&c.path, "o", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, st *board.Store, args []string, out, errOut io.Writer) int {
	format := c.format
	if format == "" {
		format = export.FormatJSON
	}
	data, err := export.Export(st.Tasks(), format, Now())
	if err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			fmt.Fprintf(errOut, "error: %v (expected json|csv|pdf)\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.StorageError
	}

	if c.path == "" || c.path == "-" {
		_, _ = out.Write(data)
		return exitcode.Success
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		fmt.Fprintf(errOut, "error: write %s: %v\n", c.path, err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "wrote %s\n", c.path)
	}
	return exitcode.Success
}
