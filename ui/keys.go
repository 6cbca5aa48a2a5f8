package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send         key.Binding
	Newline      key.Binding
	ToggleTrace  key.Binding
	Search       key.Binding
	CopyLast     key.Binding
	CopyAll      key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	PageDown     key.Binding
	PageUp       key.Binding
	Top          key.Binding
	Bottom       key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	Send:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Send message")),
	Newline:      key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("Alt+Enter", "New line")),
	ToggleTrace:  key.NewBinding(key.WithKeys("alt+t"), key.WithHelp("Alt+T", "Show/hide reasoning")),
	Search:       key.NewBinding(key.WithKeys("alt+f"), key.WithHelp("Alt+F", "Search conversation")),
	CopyLast:     key.NewBinding(key.WithKeys("alt+y"), key.WithHelp("Alt+Y", "Copy last reply")),
	CopyAll:      key.NewBinding(key.WithKeys("alt+c"), key.WithHelp("Alt+C", "Copy conversation")),
	HalfPageDown: key.NewBinding(key.WithKeys("alt+j", "alt+down"), key.WithHelp("Alt+J", "Half page down")),
	HalfPageUp:   key.NewBinding(key.WithKeys("alt+k", "alt+up"), key.WithHelp("Alt+K", "Half page up")),
	PageDown:     key.NewBinding(key.WithKeys("pgdown", "alt+J"), key.WithHelp("PgDn", "Full page down")),
	PageUp:       key.NewBinding(key.WithKeys("pgup", "alt+K"), key.WithHelp("PgUp", "Full page up")),
	Top:          key.NewBinding(key.WithKeys("alt+g"), key.WithHelp("Alt+G", "Jump to top")),
	Bottom:       key.NewBinding(key.WithKeys("alt+G"), key.WithHelp("Alt+Shift+G", "Jump to bottom")),
	Help:         key.NewBinding(key.WithKeys("alt+h"), key.WithHelp("Alt+H", "Toggle this help")),
	Quit:         key.NewBinding(key.WithKeys("alt+q", "ctrl+c"), key.WithHelp("Alt+Q", "Quit")),
}

func (k keyMap) chat() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.ToggleTrace, k.Search, k.CopyLast, k.CopyAll}
}

func (k keyMap) navigation() []key.Binding {
	return []key.Binding{k.HalfPageDown, k.HalfPageUp, k.PageDown, k.PageUp, k.Top, k.Bottom}
}

func (k keyMap) global() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}
