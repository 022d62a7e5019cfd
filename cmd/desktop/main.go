package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/cli"
	"github.com/MihkelHunter/mkBoard/internal/config"
	"github.com/MihkelHunter/mkBoard/internal/logging"
)

// ── Colour palette ───────────────────────────────────────────────────────────

var (
	colBackground = color.NRGBA{R: 15, G: 15, B: 20, A: 255}
	colSurface    = color.NRGBA{R: 26, G: 26, B: 36, A: 255}
	colLane       = color.NRGBA{R: 20, G: 20, B: 28, A: 255}
	colAccent     = color.NRGBA{R: 99, G: 102, B: 241, A: 255}
	colOverdue    = color.NRGBA{R: 239, G: 68, B: 68, A: 255}
	colDueSoon    = color.NRGBA{R: 245, G: 158, B: 11, A: 255}
	colDone       = color.NRGBA{R: 34, G: 197, B: 94, A: 255}
	colNormal     = color.NRGBA{R: 100, G: 116, B: 139, A: 255}
)

// ── App state ────────────────────────────────────────────────────────────────

type laneUI struct {
	status board.Status
	header *widget.Label
	list   *widget.List
	tasks  []board.Task
}

type appState struct {
	ctx        context.Context
	store      *board.Store
	logger     *log.Logger
	win        fyne.Window
	lanes      []*laneUI
	statsLabel *widget.Label
}

func main() {
	logger := logging.New(os.Stderr, logging.Options{Level: "info", Prefix: "mkboard"})

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	logger = logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Prefix: "mkboard"})

	ctx := context.Background()
	st, closeStore, err := cli.OpenStore(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("open board", "backend", cfg.Backend, "err", err)
	}
	defer closeStore()

	a := app.New()
	a.Settings().SetTheme(&darkTheme{})

	win := a.NewWindow("mkBoard")
	win.Resize(fyne.NewSize(1080, 640))
	win.CenterOnScreen()

	s := &appState{ctx: ctx, store: st, logger: logger, win: win}
	win.SetContent(s.buildUI())
	s.refresh()

	win.ShowAndRun()
}

// ── Build UI ─────────────────────────────────────────────────────────────────

func (s *appState) buildUI() fyne.CanvasObject {
	// Header
	title := canvas.NewText("  ▦  mkBoard", color.White)
	title.TextSize = 20
	title.TextStyle = fyne.TextStyle{Bold: true}

	addBtn := widget.NewButton("+ Add Task", s.showTaskForm)
	addBtn.Importance = widget.HighImportance

	header := container.NewBorder(nil, nil, title, container.NewPadded(addBtn))
	headerBG := canvas.NewRectangle(colSurface)
	headerStack := container.NewStack(headerBG, container.NewPadded(header))

	// One column per lane
	columns := make([]fyne.CanvasObject, 0, len(board.Statuses))
	for _, status := range board.Statuses {
		lane := &laneUI{status: status, header: widget.NewLabel(status.Title())}
		lane.header.TextStyle = fyne.TextStyle{Bold: true}
		lane.header.Alignment = fyne.TextAlignCenter
		lane.list = widget.NewList(
			func() int { return len(lane.tasks) },
			s.makeCard,
			func(i widget.ListItemID, obj fyne.CanvasObject) { s.updateCard(lane, i, obj) },
		)
		lane.list.OnSelected = func(id widget.ListItemID) { lane.list.Unselect(id) }
		s.lanes = append(s.lanes, lane)

		laneBG := canvas.NewRectangle(colLane)
		laneBG.CornerRadius = 10
		column := container.NewBorder(lane.header, nil, nil, nil, lane.list)
		columns = append(columns, container.NewStack(laneBG, container.NewPadded(column)))
	}

	// Footer / stats
	s.statsLabel = widget.NewLabel("")
	footerBG := canvas.NewRectangle(colSurface)
	footerStack := container.NewStack(footerBG, container.NewPadded(container.NewCenter(s.statsLabel)))

	// Root layout
	bg := canvas.NewRectangle(colBackground)
	ui := container.NewBorder(
		headerStack,
		footerStack,
		nil, nil,
		container.NewPadded(container.NewGridWithColumns(len(columns), columns...)),
	)
	return container.NewStack(bg, ui)
}

// ── Card template ────────────────────────────────────────────────────────────

func (s *appState) makeCard() fyne.CanvasObject {
	urgencyBar := canvas.NewRectangle(colNormal)
	urgencyBar.SetMinSize(fyne.NewSize(6, 0))

	titleLabel := widget.NewLabel("title")
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.Truncation = fyne.TextTruncateEllipsis

	descLabel := widget.NewLabel("desc")
	descLabel.Truncation = fyne.TextTruncateEllipsis

	dueText := canvas.NewText("due", colNormal)
	dueText.TextSize = 12

	prevBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {})
	prevBtn.Importance = widget.LowImportance
	nextBtn := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {})
	nextBtn.Importance = widget.LowImportance
	deleteBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {})
	deleteBtn.Importance = widget.DangerImportance

	body := container.NewVBox(titleLabel, descLabel, container.NewPadded(dueText))
	actions := container.NewHBox(prevBtn, layout.NewSpacer(), deleteBtn, nextBtn)
	cardContent := container.NewBorder(nil, actions, urgencyBar, nil, body)

	cardBG := canvas.NewRectangle(colSurface)
	cardBG.CornerRadius = 8

	return container.NewStack(cardBG, container.NewPadded(cardContent))
}

func (s *appState) updateCard(lane *laneUI, i widget.ListItemID, obj fyne.CanvasObject) {
	if i >= len(lane.tasks) {
		return
	}
	view := board.NewView(lane.tasks[i], time.Now())

	stack := obj.(*fyne.Container)
	padded := stack.Objects[1].(*fyne.Container)
	border := padded.Objects[0].(*fyne.Container)

	// container.NewBorder keeps the center object first, then the set edges in
	// top, bottom, left, right order: here [body, actions, urgencyBar].
	body := border.Objects[0].(*fyne.Container)
	actions := border.Objects[1].(*fyne.Container)
	urgencyBar := border.Objects[2].(*canvas.Rectangle)

	titleLabel := body.Objects[0].(*widget.Label)
	descLabel := body.Objects[1].(*widget.Label)
	dueText := body.Objects[2].(*fyne.Container).Objects[0].(*canvas.Text)

	prevBtn := actions.Objects[0].(*widget.Button)
	deleteBtn := actions.Objects[2].(*widget.Button)
	nextBtn := actions.Objects[3].(*widget.Button)

	colour := urgencyColour(view.Urgency)
	urgencyBar.FillColor = colour
	urgencyBar.Refresh()

	titleLabel.SetText(fmt.Sprintf("#%d  %s", view.ID, view.Title))
	descLabel.SetText(view.Description)
	dueText.Text = dueCaption(view)
	dueText.Color = colour
	dueText.Refresh()

	task := view.Task
	setLaneButton(prevBtn, task, -1, s.moveTask)
	setLaneButton(nextBtn, task, +1, s.moveTask)
	deleteBtn.OnTapped = func() { s.confirmDelete(task) }
}

// setLaneButton wires a move button, disabling it at the board's edge.
func setLaneButton(btn *widget.Button, t board.Task, dir int, move func(board.Task, board.Status)) {
	target := board.Neighbour(t.Status, dir)
	if target == t.Status {
		btn.Disable()
		btn.OnTapped = nil
		return
	}
	btn.Enable()
	btn.OnTapped = func() { move(t, target) }
}

func urgencyColour(u board.Urgency) color.Color {
	switch u {
	case board.UrgencyOverdue:
		return colOverdue
	case board.UrgencyDueSoon:
		return colDueSoon
	case board.UrgencyDone:
		return colDone
	default:
		return colNormal
	}
}

func dueCaption(v board.View) string {
	switch d := v.DaysUntilDue; {
	case v.Urgency == board.UrgencyDone:
		return "Due " + v.DueDate + " · done"
	case d == 0:
		return "Due today"
	case d == 1:
		return "Due tomorrow"
	case d > 1:
		return fmt.Sprintf("Due %s · %d days left", v.DueDate, d)
	case d == -1:
		return "Overdue by 1 day"
	default:
		return fmt.Sprintf("Overdue by %d days", -d)
	}
}

// ── Actions ───────────────────────────────────────────────────────────────────

func (s *appState) refresh() {
	lanes := s.store.Lanes()
	total := 0
	for i, lane := range lanes {
		ui := s.lanes[i]
		ui.tasks = lane.Tasks
		ui.header.SetText(fmt.Sprintf("%s (%d)", lane.Title, len(lane.Tasks)))
		ui.list.Refresh()
		total += len(lane.Tasks)
	}

	overdue := 0
	for _, v := range board.Views(s.store.Tasks(), time.Now()) {
		if v.Urgency == board.UrgencyOverdue {
			overdue++
		}
	}
	s.statsLabel.SetText(fmt.Sprintf("%d tasks · %d done · %d overdue", total, len(lanes[len(lanes)-1].Tasks), overdue))
}

func (s *appState) moveTask(t board.Task, to board.Status) {
	if err := s.store.SetStatus(s.ctx, t.ID, to); err != nil {
		s.logger.Error("move task", "id", t.ID, "status", to, "err", err)
		dialog.ShowError(err, s.win)
		return
	}
	s.refresh()
}

func (s *appState) confirmDelete(t board.Task) {
	dialog.ShowConfirm("Delete Task",
		fmt.Sprintf("Delete \"%s\"?", t.Title),
		func(ok bool) {
			if ok {
				if err := s.store.Delete(s.ctx, t.ID); err != nil {
					s.logger.Error("delete task", "id", t.ID, "err", err)
					dialog.ShowError(err, s.win)
					return
				}
				s.refresh()
			}
		}, s.win)
}

func (s *appState) showTaskForm() {
	titleEntry := widget.NewEntry()
	titleEntry.SetPlaceHolder("Task title…")

	descEntry := widget.NewMultiLineEntry()
	descEntry.SetPlaceHolder("Description…")
	descEntry.SetMinRowsVisible(3)

	dueEntry := widget.NewEntry()
	dueEntry.SetPlaceHolder("YYYY-MM-DD or MM/DD/YYYY")

	form := widget.NewForm(
		widget.NewFormItem("Title *", titleEntry),
		widget.NewFormItem("Description *", descEntry),
		widget.NewFormItem("Due date *", dueEntry),
	)

	dialog.ShowCustomConfirm("Add Task", "Save", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		if err := board.ValidateInput(titleEntry.Text, descEntry.Text, dueEntry.Text); err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		if _, err := s.store.Add(s.ctx, titleEntry.Text, descEntry.Text, dueEntry.Text); err != nil {
			s.logger.Error("add task", "err", err)
			dialog.ShowError(err, s.win)
			return
		}
		s.refresh()
	}, s.win)
}

// ── Custom dark theme ─────────────────────────────────────────────────────────

type darkTheme struct{}

func (darkTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	switch n {
	case theme.ColorNameBackground:
		return colBackground
	case theme.ColorNameButton:
		return colAccent
	case theme.ColorNamePrimary:
		return colAccent
	case theme.ColorNameForeground:
		return color.White
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 35, G: 35, B: 50, A: 255}
	case theme.ColorNameDisabled:
		return color.NRGBA{R: 80, G: 80, B: 100, A: 255}
	case theme.ColorNameSeparator:
		return color.NRGBA{R: 50, G: 50, B: 65, A: 255}
	}
	return theme.DefaultTheme().Color(n, v)
}

func (darkTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (darkTheme) Icon(n fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(n)
}

func (darkTheme) Size(n fyne.ThemeSizeName) float32 {
	switch n {
	case theme.SizeNamePadding:
		return 8
	case theme.SizeNameText:
		return 14
	case theme.SizeNameInlineIcon:
		return 20
	}
	return theme.DefaultTheme().Size(n)
}
