package rain

import (
	"fmt"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

// CancelKeys decides which key events end the loop.
// q, Escape and Ctrl+C always cancel; Extra adds one more rune when non-zero.
type CancelKeys struct {
	Extra rune
}

// Match reports whether ev cancels, with a short description of the key
func (c CancelKeys) Match(ev terminal.Event) (bool, string) {
	if ev.Type != terminal.EventKey {
		return false, ""
	}
	switch ev.Key {
	case terminal.KeyEscape, terminal.KeyCtrlC:
		return true, ev.Key.String()
	case terminal.KeyRune:
		if ev.Rune == 'q' || (c.Extra != 0 && ev.Rune == c.Extra) {
			return true, fmt.Sprintf("rune %q", ev.Rune)
		}
	}
	return false, ""
}
