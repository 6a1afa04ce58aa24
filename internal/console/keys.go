package console

import "github.com/charmbracelet/bubbles/key"

// Key is one keypress read from the terminal.
type Key rune

const keyCtrlC Key = 0x03

func (k Key) String() string {
	switch k {
	case keyCtrlC:
		return "ctrl+c"
	case '\r', '\n':
		return "enter"
	}
	return string(k)
}

// KeyMap holds the keys the console handles itself; menu choices are
// plain runes owned by the mission.
type KeyMap struct {
	Stop      key.Binding
	Interrupt key.Binding
}

var Keys = KeyMap{
	Stop: key.NewBinding(
		key.WithKeys("t", "T"),
		key.WithHelp("t", "stop"),
	),
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "exit"),
	),
}
