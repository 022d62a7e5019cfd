// Package export renders the board as JSON, CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

var ErrUnknownFormat = errors.New("unknown export format")

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Formats lists the supported format names.
var Formats = []string{FormatJSON, FormatCSV, FormatPDF}

// ContentType returns the MIME type for a format name.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Export renders tasks as of today in the given format.
func Export(tasks []board.Task, format string, today time.Time) ([]byte, error) {
	views := board.Views(tasks, today)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatCSV:
		return exportCSV(views)
	case FormatPDF:
		return exportPDF(views, today)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func exportCSV(views []board.View) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "title", "description", "due_date", "status", "days_until_due", "urgency"})
	for _, v := range views {
		_ = w.Write([]string{
			strconv.FormatInt(v.ID, 10),
			v.Title,
			v.Description,
			v.DueDate,
			string(v.Status),
			strconv.Itoa(v.DaysUntilDue),
			string(v.Urgency),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// urgencyFill mirrors the card colours of the web board.
var urgencyFill = map[board.Urgency][3]int{
	board.UrgencyDone:    {209, 231, 221},
	board.UrgencyOverdue: {248, 215, 218},
	board.UrgencyDueSoon: {255, 243, 205},
	board.UrgencyNormal:  {248, 249, 250},
}

func exportPDF(views []board.View, today time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Task Board")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "As of "+today.Format(board.DueDateLayout))
	pdf.Ln(10)

	tasks := make([]board.Task, 0, len(views))
	byID := make(map[int64]board.View, len(views))
	for _, v := range views {
		tasks = append(tasks, v.Task)
		byID[v.ID] = v
	}

	for _, lane := range board.GroupByLane(tasks) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("%s (%d)", lane.Title, len(lane.Tasks)))
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 10)
		for _, t := range lane.Tasks {
			v := byID[t.ID]
			fill := urgencyFill[v.Urgency]
			pdf.SetFillColor(fill[0], fill[1], fill[2])
			line := fmt.Sprintf("#%d  %s  (due %s, %s)", t.ID, t.Title, t.DueDate, v.Urgency)
			pdf.MultiCell(0, 6, line, "0", "L", true)
			if t.Description != "" {
				pdf.SetFont("Arial", "I", 9)
				pdf.MultiCell(0, 5, "    "+t.Description, "0", "L", false)
				pdf.SetFont("Arial", "", 10)
			}
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
