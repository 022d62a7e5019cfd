// Package tui is the interactive three-lane terminal board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

type mode int

const (
	modeBoard mode = iota
	modeAdd
	modeConfirmDelete
)

// Form fields, in tab order.
const (
	fieldTitle = iota
	fieldDescription
	fieldDue
	fieldCount
)

// Option configures a Model.
type Option func(*Model)

// WithClock replaces the clock used for due date colouring.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// Model is the bubbletea model of the terminal board.
type Model struct {
	ctx    context.Context
	store  *board.Store
	now    func() time.Time
	lanes  []board.Lane
	lane   int
	cursor [3]int
	mode   mode
	inputs [fieldCount]textinput.Model
	field  int
	status string
	failed bool
	width  int
	styles styles
}

// Run starts the board on the terminal and blocks until the user quits.
func Run(ctx context.Context, st *board.Store, opts ...Option) error {
	if !IsTTY(os.Stdout) {
		return errors.New("board requires a terminal")
	}
	program := tea.NewProgram(New(ctx, st, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// New builds a model showing the store's current lanes.
func New(ctx context.Context, st *board.Store, opts ...Option) Model {
	m := Model{
		ctx:    ctx,
		store:  st,
		now:    time.Now,
		styles: defaultStyles(),
		status: "a add • </> move • d delete • q quit",
	}
	placeholders := [fieldCount]string{"Task title", "Description", "Due date (YYYY-MM-DD or MM/DD/YYYY)"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		ti.Width = 40
		m.inputs[i] = ti
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		default:
			return m.updateBoardMode(msg.String())
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-20, 10)
		}
	}
	return m, nil
}

func (m Model) updateBoardMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		m.lane = max(m.lane-1, 0)
	case "right", "l":
		m.lane = min(m.lane+1, len(m.lanes)-1)
	case "up", "k":
		m.cursor[m.lane] = max(m.cursor[m.lane]-1, 0)
	case "down", "j":
		m.cursor[m.lane] = clampCursor(m.cursor[m.lane]+1, len(m.lanes[m.lane].Tasks))
	case "<", ",", "shift+left":
		return m.moveSelected(-1), nil
	case ">", ".", "shift+right":
		return m.moveSelected(+1), nil
	case "d", "delete":
		t, ok := m.selected()
		if !ok {
			m.setStatus("Nothing to delete", true)
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.setStatus(fmt.Sprintf("Delete %q? y/n", t.Title), false)
	case "a", "n":
		m.mode = modeAdd
		m.field = fieldTitle
		m.setStatus("New task: tab to switch fields, enter to save, esc to cancel", false)
		cmd := m.focusField(fieldTitle)
		return m, cmd
	case "r":
		if err := m.store.Reload(m.ctx); err != nil {
			m.setStatus("Reload failed: "+err.Error(), true)
			return m, nil
		}
		m.reload()
		m.setStatus("Reloaded", false)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	m.mode = modeBoard
	if key != "y" && key != "Y" {
		m.setStatus("Delete cancelled", false)
		return m, nil
	}
	t, ok := m.selected()
	if !ok {
		m.setStatus("Nothing to delete", true)
		return m, nil
	}
	if err := m.store.Delete(m.ctx, t.ID); err != nil {
		m.setStatus(fmt.Sprintf("delete failed: %v", err), true)
		return m, nil
	}
	m.reload()
	m.setStatus(fmt.Sprintf("Deleted #%d", t.ID), false)
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.resetForm()
		m.setStatus("Cancelled", false)
		return m, nil
	case "tab", "down":
		cmd := m.focusField((m.field + 1) % fieldCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.field + fieldCount - 1) % fieldCount)
		return m, cmd
	case "enter":
		if m.field < fieldDue {
			cmd := m.focusField(m.field + 1)
			return m, cmd
		}
		return m.submit()
	default:
		var cmd tea.Cmd
		m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
		return m, cmd
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	title := m.inputs[fieldTitle].Value()
	description := m.inputs[fieldDescription].Value()
	due := m.inputs[fieldDue].Value()
	if err := board.ValidateInput(title, description, due); err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	t, err := m.store.Add(m.ctx, title, description, due)
	if err != nil {
		m.setStatus(fmt.Sprintf("save failed: %v", err), true)
		return m, nil
	}
	m.resetForm()
	m.reload()
	m.focusTask(t.ID)
	m.setStatus(fmt.Sprintf("Added #%d", t.ID), false)
	return m, nil
}

// moveSelected shifts the selected task one lane in dir and keeps it selected.
func (m Model) moveSelected(dir int) Model {
	t, ok := m.selected()
	if !ok {
		return m
	}
	target := board.Neighbour(t.Status, dir)
	if target == t.Status {
		return m
	}
	if err := m.store.SetStatus(m.ctx, t.ID, target); err != nil {
		m.setStatus(fmt.Sprintf("move failed: %v", err), true)
		return m
	}
	m.reload()
	m.focusTask(t.ID)
	m.setStatus(fmt.Sprintf("Moved #%d to %s", t.ID, target.Title()), false)
	return m
}

func (m *Model) focusField(i int) tea.Cmd {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.field = i
	return m.inputs[i].Focus()
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.field = fieldTitle
	m.mode = modeBoard
}

func (m *Model) reload() {
	m.lanes = m.store.Lanes()
	for i := range m.lanes {
		m.cursor[i] = clampCursor(m.cursor[i], len(m.lanes[i].Tasks))
	}
}

// focusTask moves the lane focus and cursor onto the task with id.
func (m *Model) focusTask(id int64) {
	for i, lane := range m.lanes {
		for j, t := range lane.Tasks {
			if t.ID == id {
				m.lane = i
				m.cursor[i] = j
				return
			}
		}
	}
}

func (m Model) selected() (board.Task, bool) {
	if m.lane >= len(m.lanes) {
		return board.Task{}, false
	}
	tasks := m.lanes[m.lane].Tasks
	if len(tasks) == 0 {
		return board.Task{}, false
	}
	return tasks[m.cursor[m.lane]], true
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
