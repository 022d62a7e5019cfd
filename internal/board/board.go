// Package board defines the kanban domain model and the Store that owns it.
// The Storage interface allows swapping key-value backends (SQLite, MySQL,
// Postgres, in-memory) without changing any front end.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lane a task currently sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists the lanes in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// laneSuffix is appended to a status to form the browser board's drop target id.
const laneSuffix = "-cards"

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Title is the human readable lane heading.
func (s Status) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// LaneID returns the element id of the lane's drop target, e.g. "done-cards".
func (s Status) LaneID() string {
	return string(s) + laneSuffix
}

// ParseStatus maps a status name or a lane id ("in-progress-cards") to a Status.
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	s := Status(strings.TrimSuffix(v, laneSuffix))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// Task is the single persisted entity.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Status      Status `json:"status"`
}

// Due parses the task's due date.
func (t Task) Due() (time.Time, error) {
	return ParseDueDate(t.DueDate)
}

var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidDueDate = errors.New("invalid due date")
	ErrInvalidStatus  = errors.New("invalid status")
)

// DueDateLayout is the canonical stored form of a due date.
const DueDateLayout = "2006-01-02"

// dueDateLayouts are accepted on input. The second one is what the jQuery UI
// date picker produces by default.
var dueDateLayouts = []string{DueDateLayout, "01/02/2006", "1/2/2006"}

// ParseDueDate parses a due date in any accepted layout as a local calendar date.
func ParseDueDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dueDateLayouts {
		if d, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, v)
}

// NormalizeDueDate returns v in DueDateLayout.
func NormalizeDueDate(v string) (string, error) {
	d, err := ParseDueDate(v)
	if err != nil {
		return "", err
	}
	return d.Format(DueDateLayout), nil
}

// ValidateInput checks a new-task form. Front ends call it before Add to show
// a message; Add runs the same check.
func ValidateInput(title, description, dueDate string) error {
	var missing []string
	if strings.TrimSpace(title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(dueDate) == "" {
		missing = append(missing, "due date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if _, err := ParseDueDate(dueDate); err != nil {
		return err
	}
	return nil
}

// Storage is the persistence contract: a string-keyed, string-valued store.
// Get reports ok=false when the key has never been written.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Transactor is implemented by storages that can run a read-modify-write
// cycle atomically with respect to other writers. fn must do all its reads
// and writes through the Storage it is given.
type Transactor interface {
	Update(ctx context.Context, fn func(Storage) error) error
}
