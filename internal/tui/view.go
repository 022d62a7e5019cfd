package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

const defaultColumnWidth = 30

type styles struct {
	title       lipgloss.Style
	column      lipgloss.Style
	activeCol   lipgloss.Style
	heading     lipgloss.Style
	card        lipgloss.Style
	selected    lipgloss.Style
	overdue     lipgloss.Style
	dueSoon     lipgloss.Style
	done        lipgloss.Style
	normal      lipgloss.Style
	status      lipgloss.Style
	statusError lipgloss.Style
	help        lipgloss.Style
}

func defaultStyles() styles {
	column := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		column:      column,
		activeCol:   column.BorderForeground(lipgloss.Color("12")),
		heading:     lipgloss.NewStyle().Bold(true),
		card:        lipgloss.NewStyle().PaddingLeft(1),
		selected:    lipgloss.NewStyle().PaddingLeft(1).Reverse(true),
		overdue:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dueSoon:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		done:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Faint(true),
		normal:      lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		statusError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s styles) urgency(u board.Urgency) lipgloss.Style {
	switch u {
	case board.UrgencyOverdue:
		return s.overdue
	case board.UrgencyDueSoon:
		return s.dueSoon
	case board.UrgencyDone:
		return s.done
	default:
		return s.normal
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("mkBoard"))
	b.WriteString("\n\n")
	b.WriteString(m.renderLanes())
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	}

	if m.failed {
		b.WriteString(m.styles.statusError.Render(m.status))
	} else {
		b.WriteString(m.styles.status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("←/→ lane • ↑/↓ card • </> move • a add • d delete • r reload • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) columnWidth() int {
	if m.width <= 0 || len(m.lanes) == 0 {
		return defaultColumnWidth
	}
	// Border and padding take four cells per column.
	return max((m.width/len(m.lanes))-4, 16)
}

func (m Model) renderLanes() string {
	width := m.columnWidth()
	today := m.now()
	cols := make([]string, 0, len(m.lanes))
	for i, lane := range m.lanes {
		var body strings.Builder
		body.WriteString(m.styles.heading.Render(fmt.Sprintf("%s (%d)", lane.Title, len(lane.Tasks))))
		body.WriteString("\n")
		if len(lane.Tasks) == 0 {
			body.WriteString(m.styles.help.Render("(empty)"))
		}
		for j, t := range lane.Tasks {
			body.WriteString("\n")
			body.WriteString(m.renderCard(board.NewView(t, today), i == m.lane && j == m.cursor[i], width))
		}

		style := m.styles.column
		if i == m.lane && m.mode != modeAdd {
			style = m.styles.activeCol
		}
		cols = append(cols, style.Width(width).Render(body.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderCard(v board.View, selected bool, width int) string {
	title := fmt.Sprintf("#%d %s", v.ID, v.Title)
	due := m.styles.urgency(v.Urgency).Render(fmt.Sprintf("%s · %s", v.DueDate, dueLabel(v)))
	style := m.styles.card
	if selected {
		style = m.styles.selected
	}
	return style.Width(width - 2).Render(title) + "\n " + due
}

// dueLabel is the short urgency wording shown under a card title.
func dueLabel(v board.View) string {
	if v.Urgency == board.UrgencyDone {
		return "done"
	}
	switch d := v.DaysUntilDue; {
	case d == 0:
		return "today"
	case d == 1:
		return "tomorrow"
	case d > 1:
		return fmt.Sprintf("in %d days", d)
	case d == -1:
		return "1 day late"
	default:
		return fmt.Sprintf("%d days late", -d)
	}
}

func (m Model) renderForm() string {
	labels := [fieldCount]string{"Title", "Description", "Due"}
	var b strings.Builder
	b.WriteString(m.styles.heading.Render("New task"))
	b.WriteString("\n")
	for i, input := range m.inputs {
		marker := "  "
		if i == m.field {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%-12s %s\n", marker, labels[i], input.View())
	}
	return b.String()
}
