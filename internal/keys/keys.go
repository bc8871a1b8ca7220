package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Task actions
	New            key.Binding
	Edit           key.Binding
	Detail         key.Binding
	Toggle         key.Binding
	Delete         key.Binding
	Start          key.Binding
	Pause          key.Binding
	ClearCompleted key.Binding

	// Filters and sort
	CycleStatus   key.Binding
	CyclePriority key.Binding
	CycleDate     key.Binding
	CycleTracking key.Binding
	CycleSort     key.Binding
	ClearFilters  key.Binding

	// Panels
	Notifications key.Binding
	Rules         key.Binding
	Theme         key.Binding

	// Panel actions
	Dismiss    key.Binding
	DismissAll key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "toggle done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/resume"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear completed"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "status filter"),
		),
		CyclePriority: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "priority filter"),
		),
		CycleDate: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "date filter"),
		),
		CycleTracking: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "tracking filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "notifications"),
		),
		Rules: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "automation"),
		),
		Theme: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "light/dark"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss"),
		),
		DismissAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "dismiss all"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.New, k.Toggle,
		k.Start, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Quit, k.Help, k.Command},
		{k.New, k.Edit, k.Detail, k.Toggle, k.Delete, k.ClearCompleted},
		{k.Start, k.Pause},
		{k.CycleStatus, k.CyclePriority, k.CycleDate, k.CycleTracking, k.CycleSort, k.ClearFilters},
		{k.Notifications, k.Rules, k.Theme},
	}
}
