package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

// laneSeparator frames lane headings in list output.
const laneSeparator = "------------"

type listStyles struct {
	header  lipgloss.Style
	overdue lipgloss.Style
	dueSoon lipgloss.Style
	done    lipgloss.Style
	normal  lipgloss.Style
}

// newListStyles detects the colour profile of w, so redirected output stays plain.
func newListStyles(w io.Writer) listStyles {
	r := lipgloss.NewRenderer(w)
	return listStyles{
		header:  r.NewStyle().Bold(true),
		overdue: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		dueSoon: r.NewStyle().Foreground(lipgloss.Color("11")),
		done:    r.NewStyle().Foreground(lipgloss.Color("10")).Faint(true),
		normal:  r.NewStyle(),
	}
}

func (s listStyles) urgency(u board.Urgency) lipgloss.Style {
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

// formatLane writes a lane heading followed by one line per task.
func formatLane(w io.Writer, s listStyles, lane board.Lane, today time.Time) {
	fmt.Fprintln(w, laneSeparator)
	fmt.Fprintln(w, s.header.Render(fmt.Sprintf("%s (%d)", lane.Title, len(lane.Tasks))))
	fmt.Fprintln(w, laneSeparator)
	if len(lane.Tasks) == 0 {
		fmt.Fprintln(w, "      (empty)")
		return
	}
	for _, t := range lane.Tasks {
		formatTask(w, s, board.NewView(t, today))
	}
}

// formatTask writes "{ID:>4}  {TITLE}  {DUE}  {LABEL}  [{URGENCY}]".
func formatTask(w io.Writer, s listStyles, v board.View) {
	marker := s.urgency(v.Urgency).Render("[" + string(v.Urgency) + "]")
	fmt.Fprintf(w, "%4d  %s  %s  %s  %s\n", v.ID, normalizeTitle(v.Title), v.DueDate, dueLabel(v.DaysUntilDue), marker)
}

// dueLabel describes a day difference in words.
func dueLabel(days int) string {
	switch {
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	case days > 1:
		return fmt.Sprintf("due in %d days", days)
	case days == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// normalizeTitle keeps a task on one output line.
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
