package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines key bindings for the monitor
type keyMap struct {
	Refresh   key
	Pause     key
	HelpKey   key
	Quit      key
	ForceQuit key
}

// key represents a key binding with help text
type key struct {
	tea.Key
	help string
}

// matches reports whether msg is this binding
func (k key) matches(msg tea.KeyMsg) bool {
	return msg.String() == k.Key.String()
}

// shortHelp returns key bindings for the footer
func (k keyMap) shortHelp() []key {
	return []key{k.Refresh, k.Pause, k.HelpKey, k.Quit}
}

// fullHelp returns all key bindings
func (k keyMap) fullHelp() []key {
	return []key{k.Refresh, k.Pause, k.HelpKey, k.Quit, k.ForceQuit}
}

// Help generates the help view
func (k keyMap) Help() helpWrapper {
	return helpWrapper{
		keyMap: k,
	}
}

// helpWrapper wraps the keyMap for help display
type helpWrapper struct {
	keyMap keyMap
}

// String returns the help text
func (h helpWrapper) String() string {
	var s string
	for _, k := range h.keyMap.fullHelp() {
		if k.help != "" {
			s += k.Key.String() + " " + k.help + "\n"
		}
	}
	return s
}

// View returns the short help line
func (h helpWrapper) View() string {
	var s string
	for _, k := range h.keyMap.shortHelp() {
		s += "[" + k.Key.String() + "] " + k.help + "  "
	}
	return s
}

// defaultKeyMap creates the default key bindings
func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'r'}},
			help: "refresh now",
		},
		Pause: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'p'}},
			help: "pause/resume",
		},
		HelpKey: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
			help: "help",
		},
		Quit: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
			help: "quit",
		},
		ForceQuit: key{
			Key:  tea.Key{Type: tea.KeyEsc},
			help: "quit",
		},
	}
}
