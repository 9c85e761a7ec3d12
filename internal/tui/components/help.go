// Package components holds reusable TUI building blocks.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hy4ri/todoify/internal/tui/styles"
)

// HelpModel renders the keyboard shortcut overlay.
type HelpModel struct {
	width, height int
	items         [][]string
}

// NewHelp creates an empty HelpModel.
func NewHelp() *HelpModel {
	return &HelpModel{}
}

// leftSections are rendered in the first column, the rest in the second.
var leftSections = map[string]bool{
	"Navigation": true,
	"General":    true,
}

// View renders the help items. A row with an empty description starts a
// section; a fully empty row is a blank line.
func (h *HelpModel) View() string {
	if len(h.items) == 0 {
		return styles.Dialog.Render("No keybindings registered")
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	var col1, col2 strings.Builder
	current := &col1

	keyStyle := styles.HelpKey.Width(10).Align(lipgloss.Right).PaddingRight(2)
	for _, item := range h.items {
		if len(item) < 2 {
			continue
		}
		key, desc := item[0], item[1]

		switch {
		case key != "" && desc == "":
			if leftSections[key] {
				current = &col1
			} else {
				current = &col2
			}
			current.WriteString("\n" + styles.SectionHeader.Render(key) + "\n")
		case key == "" && desc == "":
			current.WriteString("\n")
		default:
			current.WriteString(keyStyle.Render(key) + styles.HelpDesc.Render(desc) + "\n")
		}
	}

	colWidth := h.width / 2
	if colWidth > 44 {
		colWidth = 44
	}
	if colWidth < 20 {
		colWidth = 20
	}
	column := lipgloss.NewStyle().Width(colWidth).PaddingRight(2)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		column.Render(col1.String()),
		column.Render(col2.String()),
	))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press esc or ? to close"))

	return styles.Dialog.Render(b.String())
}

// SetSize sets the available area.
func (h *HelpModel) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// SetKeymap sets the rows to render.
func (h *HelpModel) SetKeymap(items [][]string) {
	h.items = items
}
