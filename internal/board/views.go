package board

import "time"

// Urgency classifies a card for colouring.
type Urgency string

const (
	UrgencyDone    Urgency = "done"
	UrgencyOverdue Urgency = "overdue"
	UrgencyDueSoon Urgency = "due-soon"
	UrgencyNormal  Urgency = "normal"
)

// DueSoonDays is the largest number of days left that still counts as due soon.
const DueSoonDays = 2

// UrgencyFor classifies a task. A done task is always UrgencyDone, however
// overdue it is.
func UrgencyFor(daysUntilDue int, status Status) Urgency {
	if status == StatusDone {
		return UrgencyDone
	}
	switch {
	case daysUntilDue < 0:
		return UrgencyOverdue
	case daysUntilDue <= DueSoonDays:
		return UrgencyDueSoon
	default:
		return UrgencyNormal
	}
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts calendar days from today to due. Times of day are ignored.
func DaysBetween(today, due time.Time) int {
	a := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

// DaysUntilDue is the number of calendar days from today to the task's due date.
func DaysUntilDue(t Task, today time.Time) (int, error) {
	due, err := t.Due()
	if err != nil {
		return 0, err
	}
	return DaysBetween(today, due), nil
}

// View is a task together with its presentation-only derived fields.
type View struct {
	Task
	DaysUntilDue int     `json:"daysUntilDue"`
	Urgency      Urgency `json:"urgency"`
}

// NewView derives the view of t as of today. A due date that does not parse
// counts as due today.
func NewView(t Task, today time.Time) View {
	days, _ := DaysUntilDue(t, today)
	return View{
		Task:         t,
		DaysUntilDue: days,
		Urgency:      UrgencyFor(days, t.Status),
	}
}

// Views maps NewView over tasks.
func Views(tasks []Task, today time.Time) []View {
	out := make([]View, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewView(t, today))
	}
	return out
}

// Lane is one status column of the board.
type Lane struct {
	Status Status `json:"status"`
	Title  string `json:"title"`
	Tasks  []Task `json:"tasks"`
}

// GroupByLane splits tasks into the three lanes, keeping creation order
// inside each lane.
func GroupByLane(tasks []Task) []Lane {
	lanes := make([]Lane, len(Statuses))
	index := make(map[Status]int, len(Statuses))
	for i, st := range Statuses {
		lanes[i] = Lane{Status: st, Title: st.Title(), Tasks: []Task{}}
		index[st] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			lanes[i].Tasks = append(lanes[i].Tasks, t)
		}
	}
	return lanes
}

// Neighbour returns the lane next to s in direction dir (-1 left, +1 right),
// or s itself at the board's edge.
func Neighbour(s Status, dir int) Status {
	for i, st := range Statuses {
		if st != s {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(Statuses) {
			return s
		}
		return Statuses[j]
	}
	return s
}
