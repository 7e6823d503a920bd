package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Flip            key.Binding
	Prev            key.Binding
	Next            key.Binding
	Clear           key.Binding
	Favorite        key.Binding
	Filter          key.Binding
	Search          key.Binding
	Goto            key.Binding
	ShuffleOptions  key.Binding
	ShuffleQuestion key.Binding
	Reset           key.Binding
	Eye             key.Binding
	Explain         key.Binding
	Submit          key.Binding
	Review          key.Binding
	Back            key.Binding
	Up              key.Binding
	Down            key.Binding
	Confirm         key.Binding
	Quit            key.Binding
}

var keys = keyMap{
	Flip:            key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "flip")),
	Prev:            key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous")),
	Next:            key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next")),
	Clear:           key.NewBinding(key.WithKeys("0", "backspace"), key.WithHelp("0", "clear answer")),
	Favorite:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
	Filter:          key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
	Search:          key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Goto:            key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to")),
	ShuffleOptions:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle options")),
	ShuffleQuestion: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "shuffle questions")),
	Reset:           key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Eye:             key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "show/hide flip card")),
	Explain:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "explain")),
	Submit:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Review:          key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "review incorrect")),
	Back:            key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Up:              key.NewBinding(key.WithKeys("up", "ctrl+p")),
	Down:            key.NewBinding(key.WithKeys("down", "ctrl+n")),
	Confirm:         key.NewBinding(key.WithKeys("y", "Y")),
	Quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// optionIndex maps the digit keys 1-9 to option indexes.
func optionIndex(msg string) (int, bool) {
	if len(msg) != 1 || msg[0] < '1' || msg[0] > '9' {
		return 0, false
	}
	return int(msg[0] - '1'), true
}
