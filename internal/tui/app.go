// Package tui provides the terminal user interface for Todoify.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/todoify/internal/tui/logic"
	"github.com/hy4ri/todoify/internal/tui/state"
	"github.com/hy4ri/todoify/internal/tui/ui"
)

// App is the main Bubble Tea model. The handler mutates the shared state
// and the renderer draws it.
type App struct {
	state    *state.State
	handler  *logic.Handler
	renderer *ui.Renderer
}

// NewApp creates the model for st.
func NewApp(st *state.State) *App {
	return &App{
		state:    st,
		handler:  logic.NewHandler(st),
		renderer: ui.NewRenderer(st),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.handler.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return a, a.handler.Update(msg)
}

// View implements tea.Model.
func (a *App) View() string {
	return a.renderer.View()
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(st *state.State) error {
	p := tea.NewProgram(NewApp(st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
