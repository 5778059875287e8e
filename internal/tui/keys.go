package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Toasts
	Success key.Binding
	Error   key.Binding
	Info    key.Binding
	Warning key.Binding
	Compose key.Binding
	Dismiss key.Binding
	Clear   key.Binding
	Copy    key.Binding

	// Gallery
	Prev  key.Binding
	Next  key.Binding
	First key.Binding

	// Compose mode
	CycleKind key.Binding
	Submit    key.Binding
	Cancel    key.Binding

	// Global
	Theme key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Compose, k.Dismiss, k.Theme, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Success, k.Error, k.Info, k.Warning},
		{k.Compose, k.Dismiss, k.Clear, k.Copy},
		{k.Prev, k.Next, k.First, k.Theme},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Success: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "success toast"),
		),
		Error: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "error toast"),
		),
		Info: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "info toast"),
		),
		Warning: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "warning toast"),
		),
		Compose: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new toast"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss newest"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "dismiss all"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy newest"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous slide"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next slide"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first slide"),
		),
		CycleKind: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle kind"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
