package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/hy4ri/todoify/internal/tui/components"
	"github.com/hy4ri/todoify/internal/tui/state"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

// Empty-state texts for the grid, by filter.
const (
	emptyAll       = "No tasks yet. Create your first task!"
	emptyActive    = "No active tasks!"
	emptyCompleted = "No completed tasks yet!"
)

// cardHeight is the rendered height of a card including its border.
const cardHeight = 7

type Renderer struct {
	*state.State

	help *components.HelpModel
}

func NewRenderer(s *state.State) *Renderer {
	return &Renderer{State: s, help: components.NewHelp()}
}

func (r *Renderer) View() string {
	if r.Width == 0 {
		return "Loading..."
	}

	if r.Screen == state.ScreenLogin {
		return r.renderLogin()
	}

	content := r.renderDashboard()

	// At most one dialog is drawn; the confirmation sits above the others.
	switch {
	case r.Confirm != nil:
		content = r.overlay(r.renderConfirm())
	case r.TaskForm != nil:
		content = r.overlay(r.renderTaskForm())
	case r.ShowDeleted:
		content = r.overlay(r.renderDeleted())
	case r.ShowHelp:
		r.help.SetSize(r.Width, r.Height)
		r.help.SetKeymap(r.Keymap.HelpItems())
		content = r.overlay(r.help.View())
	}

	return content
}

// overlay centers a dialog on the screen.
func (r *Renderer) overlay(dialog string) string {
	return lipgloss.Place(r.Width, r.Height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderDashboard renders the header, tab bar, banner, body and status bar.
func (r *Renderer) renderDashboard() string {
	header := r.renderHeader()
	tabBar := r.renderTabBar()
	banner := r.renderBanner()
	statusBar := r.renderStatusBar()

	used := lipgloss.Height(header) + lipgloss.Height(tabBar) + lipgloss.Height(statusBar)
	if banner != "" {
		used += lipgloss.Height(banner)
	}
	bodyHeight := r.Height - used
	if bodyHeight < cardHeight {
		bodyHeight = cardHeight
	}

	var body string
	if r.State.View == state.ViewCalendar {
		body = r.renderCalendar(bodyHeight)
	} else {
		body = r.renderGrid(bodyHeight)
	}
	body = lipgloss.Place(r.Width, bodyHeight, lipgloss.Left, lipgloss.Top, body)

	parts := []string{header, tabBar}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *Renderer) renderHeader() string {
	title := styles.Title.Render("Todoify")
	if user := r.Session.User(); user != nil && user.Email != "" {
		title += styles.Faint.Render("  " + user.Email)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(title)
}

// renderTabBar renders the filter tabs with their counts.
func (r *Renderer) renderTabBar() string {
	var counts tasks.Counts
	if r.Tasks != nil {
		counts = r.Tasks.Counts()
	}
	countFor := map[tasks.Filter]int{
		tasks.FilterAll:       counts.All,
		tasks.FilterActive:    counts.Active,
		tasks.FilterCompleted: counts.Completed,
	}

	useShortLabels := r.Width < 70

	var tabStrs []string
	for i, t := range state.GetTabDefinitions() {
		label := fmt.Sprintf("%d %s (%d)", i+1, t.Name, countFor[t.Filter])
		if useShortLabels {
			label = fmt.Sprintf("%d (%d)", i+1, countFor[t.Filter])
		}
		if r.Filter == t.Filter {
			tabStrs = append(tabStrs, styles.TabActive.Render(label))
		} else {
			tabStrs = append(tabStrs, styles.Tab.Render(label))
		}
	}
	tabStrs = append(tabStrs, styles.Tab.Render(fmt.Sprintf("D Deleted (%d)", counts.Deleted)))

	view := "grid"
	if r.State.View == state.ViewCalendar {
		view = "calendar"
	}
	tabStrs = append(tabStrs, styles.Faint.Render("  v: "+view))

	return styles.TabBar.Width(r.Width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabStrs...))
}

// renderBanner renders the controller's error, if any.
func (r *Renderer) renderBanner() string {
	if r.Tasks == nil || r.Tasks.Err() == "" {
		return ""
	}
	msg := truncateString(r.Tasks.Err(), r.Width-20)
	return styles.ErrorBanner.Width(r.Width).Render("! " + msg + "  (esc to dismiss)")
}

// renderGrid renders the visible tasks as cards, scrolled so the cursor row
// stays on screen.
func (r *Renderer) renderGrid(height int) string {
	visible := r.VisibleTasks()
	if len(visible) == 0 {
		if r.Loading {
			return "\n  " + r.Spinner.View() + " Loading tasks..."
		}
		return "\n  " + styles.Faint.Render(emptyText(r.Filter)) + "\n\n  " +
			styles.HelpDesc.Render("Press a to add a task")
	}

	cols := r.GridColumns()
	rowsShown := height / cardHeight
	if rowsShown < 1 {
		rowsShown = 1
	}
	cursorRow := r.Cursor / cols
	startRow := 0
	if cursorRow >= rowsShown {
		startRow = cursorRow - rowsShown + 1
	}

	var rows []string
	for row := startRow; row < startRow+rowsShown; row++ {
		start := row * cols
		if start >= len(visible) {
			break
		}
		end := start + cols
		if end > len(visible) {
			end = len(visible)
		}

		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, renderCard(visible[i], i, i == r.Cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}

	return lipgloss.NewStyle().PaddingLeft(1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func emptyText(f tasks.Filter) string {
	switch f {
	case tasks.FilterActive:
		return emptyActive
	case tasks.FilterCompleted:
		return emptyCompleted
	default:
		return emptyAll
	}
}

// renderCard renders one task. The accent colour rotates with the position.
func renderCard(t api.Task, index int, selected bool) string {
	inner := state.CardWidth - 4 // border + padding

	checkbox := styles.CheckboxUnchecked
	titleStyle := styles.CardTitle
	if t.Completed {
		checkbox = styles.CheckboxChecked
		titleStyle = styles.CardCompleted
	}
	title := titleStyle.Render(truncateString(t.Title, inner-4))

	var desc []string
	for _, line := range strings.Split(t.Description, "\n") {
		if len(desc) == 2 {
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			desc = append(desc, styles.CardDescription.Render(truncateString(line, inner)))
		}
	}
	for len(desc) < 2 {
		desc = append(desc, "")
	}

	meta := ""
	if !t.CreatedAt.IsZero() {
		meta = styles.CardMeta.Render("Created " + t.CreatedAt.Local().Format("Jan 2, 2006"))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		checkbox+" "+title,
		"",
		desc[0],
		desc[1],
		meta,
	)

	style := styles.Card.Width(state.CardWidth - 2).BorderForeground(styles.CardColor(index))
	if selected {
		style = style.BorderStyle(lipgloss.ThickBorder()).BorderForeground(styles.Highlight)
	}
	return style.Render(body)
}

// renderStatusBar renders the status message on the left and key hints on
// the right.
func (r *Renderer) renderStatusBar() string {
	left := ""
	if r.Loading {
		left = r.Spinner.View() + styles.StatusBarText.Render(" Working...")
	} else if r.StatusMsg != "" {
		left = styles.StatusBarSuccess.Render(strings.ReplaceAll(r.StatusMsg, "\n", " "))
	}

	hints := []string{
		styles.StatusBarKey.Render("a") + styles.StatusBarText.Render(":add"),
		styles.StatusBarKey.Render("x") + styles.StatusBarText.Render(":done"),
		styles.StatusBarKey.Render("dd") + styles.StatusBarText.Render(":delete"),
		styles.StatusBarKey.Render("?") + styles.StatusBarText.Render(":help"),
		styles.StatusBarKey.Render("q") + styles.StatusBarText.Render(":quit"),
	}
	right := strings.Join(hints, styles.StatusBarText.Render(" "))

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	padding := styles.StatusBar.GetHorizontalFrameSize()

	maxLeftWidth := r.Width - rightWidth - padding - 2
	if leftWidth > maxLeftWidth && maxLeftWidth > 10 {
		left = truncateString(r.StatusMsg, maxLeftWidth)
		leftWidth = lipgloss.Width(left)
	}

	gap := r.Width - leftWidth - rightWidth - padding
	if gap < 1 {
		gap = 1
	}
	return styles.StatusBar.Width(r.Width).Render(left + strings.Repeat(" ", gap) + right)
}
