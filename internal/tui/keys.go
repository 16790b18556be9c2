package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Remove  key.Binding
	Delete  key.Binding
	Back    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete account")),
	Delete:  key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("enter/d", "delete account")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Confirm: key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "delete")),
	Cancel:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
}
