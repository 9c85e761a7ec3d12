package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/hy4ri/todoify/internal/api"
)

// Filter selects which active tasks are shown.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Filters lists every filter in tab order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// ParseFilter parses a filter name. The empty string selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q (want all, active or completed)", s)
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t api.Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Apply returns the tasks that pass the filter, in order.
func (f Filter) Apply(tasks []api.Task) []api.Task {
	out := make([]api.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// MaxTasksPerCell is how many tasks a calendar day shows before "+N more".
const MaxTasksPerCell = 3

// CalendarCell is one day of a month grid. Padding cells have a zero Date.
type CalendarCell struct {
	Date     time.Time
	Today    bool
	Tasks    []api.Task
	Overflow int
}

// IsPadding reports whether the cell is a blank outside the month.
func (c CalendarCell) IsPadding() bool {
	return c.Date.IsZero()
}

// Month is a Sunday-first month grid.
type Month struct {
	Start time.Time
	Cells []CalendarCell
}

// Weeks splits the cells into rows of seven.
func (m Month) Weeks() [][]CalendarCell {
	var weeks [][]CalendarCell
	for i := 0; i < len(m.Cells); i += 7 {
		end := i + 7
		if end > len(m.Cells) {
			end = len(m.Cells)
		}
		weeks = append(weeks, m.Cells[i:end])
	}
	return weeks
}

// BuildMonth lays out the month containing month and places each task on the
// day it was created, in month's location. Each day keeps at most
// MaxTasksPerCell tasks and counts the rest in Overflow.
func BuildMonth(month time.Time, tasks []api.Task, now time.Time) Month {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	byDay := make(map[int][]api.Task)
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			continue
		}
		created := t.CreatedAt.In(loc)
		if created.Year() == first.Year() && created.Month() == first.Month() {
			byDay[created.Day()] = append(byDay[created.Day()], t)
		}
	}

	localNow := now.In(loc)
	total := leading + daysInMonth
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	cells := make([]CalendarCell, total)
	for day := 1; day <= daysInMonth; day++ {
		date := first.AddDate(0, 0, day-1)
		dayTasks := byDay[day]
		cell := CalendarCell{
			Date:  date,
			Today: sameDay(date, localNow),
		}
		if len(dayTasks) > MaxTasksPerCell {
			cell.Tasks = dayTasks[:MaxTasksPerCell]
			cell.Overflow = len(dayTasks) - MaxTasksPerCell
		} else {
			cell.Tasks = dayTasks
		}
		cells[leading+day-1] = cell
	}

	return Month{Start: first, Cells: cells}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
