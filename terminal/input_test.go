package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(r *inputReader) []Event {
	var out []Event
	for {
		select {
		case ev := <-r.eventCh:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestParseInput_Keys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Event
	}{
		{"printable", "q", []Event{{Key: KeyRune, Rune: 'q'}}},
		{"ctrl c", "\x03", []Event{{Key: KeyCtrlC}}},
		{"enter", "\r", []Event{{Key: KeyEnter}}},
		{"tab", "\t", []Event{{Key: KeyTab}}},
		{"delete byte", "\x7f", []Event{{Key: KeyBackspace}}},
		{"arrow", "\x1b[A", []Event{{Key: KeyUp}}},
		{"ctrl arrow", "\x1b[1;5C", []Event{{Key: KeyRight, Modifiers: ModCtrl}}},
		{"page down", "\x1b[6~", []Event{{Key: KeyPageDown}}},
		{"ss3 f1", "\x1bOP", []Event{{Key: KeyF1}}},
		{"console f1", "\x1b[[A", []Event{{Key: KeyF1}}},
		{"alt letter", "\x1bx", []Event{{Key: KeyRune, Rune: 'x', Modifiers: ModAlt}}},
		{"alt escape", "\x1b\x1b", []Event{{Key: KeyEscape, Modifiers: ModAlt}}},
		{"multibyte", "ｱ", []Event{{Key: KeyRune, Rune: 'ｱ'}}},
		{"unknown csi swallowed", "\x1b[99~", nil},
		{"sequence then key", "\x1b[Bq", []Event{{Key: KeyDown}, {Key: KeyRune, Rune: 'q'}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newInputReader(nil)
			consumed := r.parseInput([]byte(tc.input))
			assert.Equal(t, len(tc.input), consumed)
			assert.Equal(t, tc.want, drain(r))
		})
	}
}

func TestParseInput_Incomplete(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		consumed int
	}{
		{"lone escape", []byte{0x1b}, 0},
		{"open csi", []byte("\x1b[1;"), 0},
		{"open ss3", []byte("\x1bO"), 0},
		{"split rune", []byte("ｱ")[:2], 0},
		{"key before split rune", append([]byte("a"), []byte("ｱ")[:1]...), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newInputReader(nil)
			assert.Equal(t, tc.consumed, r.parseInput(tc.input))
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "escape", KeyEscape.String())
	assert.Equal(t, "ctrl_c", KeyCtrlC.String())
	assert.Equal(t, "none", KeyNone.String())
	assert.Equal(t, "none", Key(9999).String())
}
