package state

import tea "github.com/charmbracelet/bubbletea"

// Key represents a key binding.
type Key struct {
	Key  string
	Help string
}

// KeymapData contains all key bindings for the dashboard.
type KeymapData struct {
	// Navigation
	Up     Key
	Down   Key
	Left   Key
	Right  Key
	Top    Key
	Bottom Key

	// Actions
	Back    Key
	Quit    Key
	Help    Key
	Refresh Key
	Logout  Key

	// Task actions
	AddTask      Key
	EditTask     Key
	DeleteTask   Key
	CompleteTask Key
	CopyTask     Key
	ShowDeleted  Key

	// Filters and views
	FilterAll       Key
	FilterActive    Key
	FilterCompleted Key
	ToggleView      Key
	PrevMonth       Key
	NextMonth       Key
}

// DefaultKeymap returns the default Vim-style key bindings.
func DefaultKeymap() KeymapData {
	return KeymapData{
		// Navigation
		Up:     Key{Key: "k", Help: "up"},
		Down:   Key{Key: "j", Help: "down"},
		Left:   Key{Key: "h", Help: "left"},
		Right:  Key{Key: "l", Help: "right"},
		Top:    Key{Key: "g", Help: "top (gg)"},
		Bottom: Key{Key: "G", Help: "bottom"},

		// Actions
		Back:    Key{Key: "esc", Help: "back / dismiss error"},
		Quit:    Key{Key: "q", Help: "quit"},
		Help:    Key{Key: "?", Help: "help"},
		Refresh: Key{Key: "r", Help: "refresh"},
		Logout:  Key{Key: "L", Help: "sign out"},

		// Task actions
		AddTask:      Key{Key: "a", Help: "add task"},
		EditTask:     Key{Key: "e", Help: "edit task"},
		DeleteTask:   Key{Key: "d", Help: "delete (dd)"},
		CompleteTask: Key{Key: "x", Help: "complete/uncomplete"},
		CopyTask:     Key{Key: "y", Help: "copy task (yy)"},
		ShowDeleted:  Key{Key: "D", Help: "deleted tasks"},

		// Filters and views
		FilterAll:       Key{Key: "1", Help: "all tasks"},
		FilterActive:    Key{Key: "2", Help: "active tasks"},
		FilterCompleted: Key{Key: "3", Help: "completed tasks"},
		ToggleView:      Key{Key: "v", Help: "grid / calendar"},
		PrevMonth:       Key{Key: "[", Help: "previous month"},
		NextMonth:       Key{Key: "]", Help: "next month"},
	}
}

// HelpItems returns the help rows grouped by section. A row with an empty
// description starts a section.
func (k KeymapData) HelpItems() [][]string {
	return [][]string{
		{"Navigation", ""},
		{k.Up.Key + "/" + k.Down.Key, "move up/down"},
		{k.Left.Key + "/" + k.Right.Key, "move left/right"},
		{"gg/" + k.Bottom.Key, "first/last task"},
		{"General", ""},
		{k.FilterAll.Key + "/" + k.FilterActive.Key + "/" + k.FilterCompleted.Key, "all/active/completed"},
		{k.ToggleView.Key, k.ToggleView.Help},
		{k.PrevMonth.Key + "/" + k.NextMonth.Key, "previous/next month"},
		{k.Refresh.Key, k.Refresh.Help},
		{k.Logout.Key, k.Logout.Help},
		{k.Help.Key, k.Help.Help},
		{k.Back.Key, k.Back.Help},
		{k.Quit.Key, k.Quit.Help},
		{"Task Actions", ""},
		{k.AddTask.Key, k.AddTask.Help},
		{k.EditTask.Key, k.EditTask.Help},
		{k.CompleteTask.Key, k.CompleteTask.Help},
		{"dd", "delete task"},
		{"yy", "copy task"},
		{k.ShowDeleted.Key, k.ShowDeleted.Help},
		{"Deleted Tasks", ""},
		{"r", "restore"},
		{"X", "delete permanently"},
	}
}

// KeyState tracks multi-key sequences (like 'gg' or 'dd' or 'yy').
type KeyState struct {
	WaitingG bool // Waiting for second 'g' in 'gg'
	WaitingD bool // Waiting for second 'd' in 'dd'
	WaitingY bool // Waiting for second 'y' in 'yy'
}

// Reset clears any pending sequence.
func (ks *KeyState) Reset() {
	ks.WaitingG = false
	ks.WaitingD = false
	ks.WaitingY = false
}

// HandleKey processes a key press and returns the action to take.
// Returns the action name and whether the key was consumed.
func (ks *KeyState) HandleKey(msg tea.KeyMsg, keymap KeymapData) (string, bool) {
	key := msg.String()

	// Handle 'gg' sequence (go to top)
	if ks.WaitingG {
		ks.WaitingG = false
		if key == "g" {
			return "top", true
		}
	}

	// Handle 'dd' sequence (delete)
	if ks.WaitingD {
		ks.WaitingD = false
		if key == "d" {
			return "delete", true
		}
	}

	// Handle 'yy' sequence (copy)
	if ks.WaitingY {
		ks.WaitingY = false
		if key == "y" {
			return "copy", true
		}
	}

	// Check for multi-key sequence starts
	switch key {
	case keymap.Top.Key:
		ks.WaitingG = true
		return "", true
	case keymap.DeleteTask.Key:
		ks.WaitingD = true
		return "", true
	case keymap.CopyTask.Key:
		ks.WaitingY = true
		return "", true
	}

	// Single key mappings
	switch key {
	case keymap.Up.Key, "up":
		return "up", true
	case keymap.Down.Key, "down":
		return "down", true
	case keymap.Left.Key, "left":
		return "left", true
	case keymap.Right.Key, "right":
		return "right", true
	case keymap.Bottom.Key:
		return "bottom", true
	case keymap.Back.Key:
		return "back", true
	case keymap.Quit.Key, "ctrl+c":
		return "quit", true
	case keymap.Help.Key:
		return "help", true
	case keymap.Refresh.Key:
		return "refresh", true
	case keymap.Logout.Key:
		return "logout", true
	case keymap.AddTask.Key:
		return "add", true
	case keymap.EditTask.Key, "enter":
		return "edit", true
	case keymap.CompleteTask.Key, " ":
		return "complete", true
	case keymap.ShowDeleted.Key:
		return "deleted", true
	case keymap.FilterAll.Key:
		return "filter_all", true
	case keymap.FilterActive.Key:
		return "filter_active", true
	case keymap.FilterCompleted.Key:
		return "filter_completed", true
	case keymap.ToggleView.Key:
		return "toggle_view", true
	case keymap.PrevMonth.Key:
		return "prev_month", true
	case keymap.NextMonth.Key:
		return "next_month", true
	}

	return "", false
}
