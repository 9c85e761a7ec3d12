package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// renderCalendar renders the month grid with task titles in each day cell.
func (r *Renderer) renderCalendar(maxHeight int) string {
	var b strings.Builder

	now := r.Now()
	month := tasks.BuildMonth(r.CalendarMonth, r.VisibleTasks(), now)

	b.WriteString(styles.CalendarHeader.Width(r.Width).Render(strings.ToUpper(month.Start.Format("January 2006"))))
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render(" [ ] prev/next month | v grid view"))
	b.WriteString("\n")

	// 7 columns + 8 vertical lines
	cellWidth := (r.Width - 8) / 7
	if cellWidth < 6 {
		cellWidth = 6
	}
	if cellWidth > 24 {
		cellWidth = 24
	}

	weeks := month.Weeks()
	// Header and help take 2 lines, the weekday row and each week's bottom
	// border one more.
	cellLines := (maxHeight-3)/len(weeks) - 1
	if cellLines < 2 {
		cellLines = 2
	}
	if cellLines > tasks.MaxTasksPerCell+2 {
		cellLines = tasks.MaxTasksPerCell + 2
	}

	border := styles.CalendarCellBorder.Render("│")
	var header strings.Builder
	header.WriteString(border)
	for _, wd := range weekdays {
		header.WriteString(styles.CalendarWeekday.Render(padRight(" "+wd, cellWidth)))
		header.WriteString(border)
	}
	b.WriteString(header.String() + "\n")

	separator := styles.CalendarCellBorder.Render("├" + strings.Repeat(strings.Repeat("─", cellWidth)+"┼", 6) + strings.Repeat("─", cellWidth) + "┤")

	for _, week := range weeks {
		lines := make([]strings.Builder, cellLines)
		for i := range lines {
			lines[i].WriteString(border)
		}

		for _, cell := range week {
			cellContent := renderCalendarCell(cell, cellWidth, cellLines)
			for i, line := range cellContent {
				lines[i].WriteString(line)
				lines[i].WriteString(border)
			}
		}

		b.WriteString(separator + "\n")
		for i := range lines {
			b.WriteString(lines[i].String() + "\n")
		}
	}

	return b.String()
}

// renderCalendarCell returns exactly height lines of exactly width cells.
func renderCalendarCell(cell tasks.CalendarCell, width, height int) []string {
	out := make([]string, height)
	blank := strings.Repeat(" ", width)
	for i := range out {
		out[i] = blank
	}
	if cell.IsPadding() {
		return out
	}

	dayStyle := styles.CalendarDay
	if cell.Today {
		dayStyle = styles.CalendarDayToday
	}
	out[0] = dayStyle.Render(padRight(fmt.Sprintf(" %2d", cell.Date.Day()), width))

	line := 1
	for i, t := range cell.Tasks {
		if line >= height {
			break
		}
		// Keep a line for the overflow marker.
		if cell.Overflow > 0 && line == height-1 {
			break
		}
		style := lipgloss.NewStyle().Foreground(styles.CardColor(i))
		if t.Completed {
			style = style.Strikethrough(true).Faint(true)
		}
		out[line] = style.Render(padRight(" "+truncateString(t.Title, width-1), width))
		line++
	}

	hidden := cell.Overflow + len(cell.Tasks) - (line - 1)
	if hidden > 0 && line < height {
		out[line] = styles.CalendarMoreTasks.Render(padRight(fmt.Sprintf(" +%d more", hidden), width))
	}
	return out
}
