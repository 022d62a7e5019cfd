package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/exitcode"
)

// ErrTaskIDRequired is returned when no task id argument was given.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses a task id such as "7" or "#7".
func ParseTaskID(arg string) (int64, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if arg == "" {
		return 0, ErrTaskIDRequired
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", arg)
	}
	return id, nil
}

// storeErrorCode reports a store error and picks the exit code for it.
func storeErrorCode(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, board.ErrMissingField),
		errors.Is(err, board.ErrInvalidDueDate),
		errors.Is(err, board.ErrInvalidStatus):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: storage error: %v\n", err)
		return exitcode.StorageError
	}
}
