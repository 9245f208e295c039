package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the chat screen bindings.
type KeyMap struct {
	Login  key.Binding
	Logout key.Binding
	Send   key.Binding
	Quit   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Login:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "login")),
		Logout: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}
