package rain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

func key(k terminal.Key) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: k}
}

func runeKey(r rune) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: r}
}

func TestCancelKeys(t *testing.T) {
	tests := []struct {
		name   string
		extra  rune
		ev     terminal.Event
		cancel bool
	}{
		{"q", 0, runeKey('q'), true},
		{"escape", 0, key(terminal.KeyEscape), true},
		{"ctrl c", 0, key(terminal.KeyCtrlC), true},
		{"extra rune", 'x', runeKey('x'), true},
		{"extra unset", 0, runeKey('x'), false},
		{"capital q", 0, runeKey('Q'), false},
		{"other key", 'x', key(terminal.KeyEnter), false},
		{"arrow", 0, key(terminal.KeyUp), false},
		{"resize event", 0, terminal.Event{Type: terminal.EventResize, Width: 10, Height: 5}, false},
		{"closed input", 0, terminal.Event{Type: terminal.EventClosed}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := CancelKeys{Extra: tc.extra}.Match(tc.ev)
			assert.Equal(t, tc.cancel, ok)
			if ok {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, 16*time.Millisecond, FrameDuration(60))
	assert.Equal(t, 1000*time.Millisecond, FrameDuration(1))
	assert.Equal(t, 1000*time.Millisecond, FrameDuration(0))
	assert.Equal(t, 1000*time.Millisecond, FrameDuration(-5))
	assert.Equal(t, time.Millisecond, FrameDuration(1000))
	assert.Equal(t, time.Duration(0), FrameDuration(2000))
}

func TestParseTint(t *testing.T) {
	assert.Equal(t, terminal.RGB{R: 0, G: 255, B: 65}, GreenTint)

	rgb, err := ParseTint("#ff8000")
	assert.NoError(t, err)
	assert.Equal(t, terminal.RGB{R: 255, G: 128, B: 0}, rgb)

	_, err = ParseTint("green")
	assert.Error(t, err)
}
