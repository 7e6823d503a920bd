package quiz

// Navigator tracks the current position within a filtered view.
// The zero value points at the first question.
type Navigator struct {
	index int
}

// Index returns the current 0-based position.
func (n Navigator) Index() int {
	return n.index
}

// Prev moves one question back, stopping at the first.
func (n *Navigator) Prev(length int) {
	n.move(max(n.index-1, 0), length)
}

// Next moves one question forward, stopping at the last.
func (n *Navigator) Next(length int) {
	n.move(min(n.index+1, length-1), length)
}

// Goto jumps to the 1-based question number. Numbers outside [1, length]
// leave the position unchanged and return false.
func (n *Navigator) Goto(number, length int) bool {
	return n.move(number-1, length)
}

// Reset returns to the first question.
func (n *Navigator) Reset() {
	n.index = 0
}

func (n *Navigator) move(to, length int) bool {
	if to < 0 || to >= length {
		return false
	}
	n.index = to
	return true
}
