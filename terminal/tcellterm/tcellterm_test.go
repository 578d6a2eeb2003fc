package tcellterm

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tiny-terminal/rain"
	"github.com/lixenwraith/tiny-terminal/terminal"
)

func newSimTerminal(t *testing.T, mode terminal.ColorMode) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewWithScreen(screen, mode)
	require.NoError(t, term.Init())
	t.Cleanup(func() { term.Fini() })
	screen.SetSize(20, 5)
	return term, screen
}

func TestTerminal_Lifecycle(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewWithScreen(screen, terminal.ColorModeTrueColor)

	assert.ErrorIs(t, term.Clear(), terminal.ErrClosed)
	_, _, err := term.PollEvent(0)
	assert.ErrorIs(t, err, terminal.ErrClosed)

	require.NoError(t, term.Init())
	require.NoError(t, term.Init())
	require.NoError(t, term.Fini())
	require.NoError(t, term.Fini())

	assert.ErrorIs(t, term.Print('x'), terminal.ErrClosed)
	assert.ErrorIs(t, term.Flush(), terminal.ErrClosed)
}

func TestTerminal_Size(t *testing.T) {
	term, _ := newSimTerminal(t, terminal.ColorModeTrueColor)

	w, h, err := term.Size()
	require.NoError(t, err)
	assert.Equal(t, 20, w)
	assert.Equal(t, 5, h)
}

func TestTerminal_Draw(t *testing.T) {
	tests := []struct {
		name string
		mode terminal.ColorMode
		want tcell.Color
	}{
		{"truecolor", terminal.ColorModeTrueColor, tcell.NewRGBColor(0, 255, 65)},
		{"256", terminal.ColorMode256, tcell.PaletteColor(47)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			term, screen := newSimTerminal(t, tc.mode)

			require.NoError(t, term.Clear())
			require.NoError(t, term.SetForeground(terminal.RGB{R: 0, G: 255, B: 65}))
			require.NoError(t, term.MoveTo(4, 2))
			require.NoError(t, term.Print('漢'))
			require.NoError(t, term.ResetColor())
			require.NoError(t, term.Print('1'))
			require.NoError(t, term.Flush())

			r, _, style, _ := screen.GetContent(4, 2)
			assert.Equal(t, '漢', r)
			fg, _, _ := style.Decompose()
			assert.Equal(t, tc.want, fg)

			// Wide glyph advances the cursor by two cells
			r, _, style, _ = screen.GetContent(6, 2)
			assert.Equal(t, '1', r)
			fg, _, _ = style.Decompose()
			assert.Equal(t, tcell.ColorDefault, fg)
		})
	}
}

func TestTerminal_PollEvent(t *testing.T) {
	term, screen := newSimTerminal(t, terminal.ColorModeTrueColor)

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	var ev terminal.Event
	require.Eventually(t, func() bool {
		var ok bool
		ev, ok, _ = term.PollEvent(0)
		return ok && ev.Type == terminal.EventKey
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, terminal.KeyRune, ev.Key)
	assert.Equal(t, 'q', ev.Rune)
}

func TestTerminal_PollEventTimeout(t *testing.T) {
	term, _ := newSimTerminal(t, terminal.ColorModeTrueColor)

	// Drain whatever tcell posted during Init
	for {
		if _, ok, _ := term.PollEvent(0); !ok {
			break
		}
	}

	start := time.Now()
	_, ok, err := term.PollEvent(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestConvertKey(t *testing.T) {
	tests := []struct {
		in   tcell.Key
		want terminal.Key
	}{
		{tcell.KeyRune, terminal.KeyRune},
		{tcell.KeyEscape, terminal.KeyEscape},
		{tcell.KeyCtrlC, terminal.KeyCtrlC},
		{tcell.KeyCtrlSpace + 3, terminal.KeyCtrlC},
		{tcell.KeyCtrlSpace, terminal.KeyCtrlSpace},
		{tcell.KeyCtrlA, terminal.KeyCtrlA},
		{tcell.KeyCtrlZ, terminal.KeyCtrlZ},
		{tcell.KeyCtrlUnderscore, terminal.KeyCtrlUnderscore},
		{tcell.KeyEnter, terminal.KeyEnter},
		{tcell.KeyTab, terminal.KeyTab},
		{tcell.KeyBackspace, terminal.KeyBackspace},
		{tcell.KeyBackspace2, terminal.KeyBackspace},
		{tcell.KeyUp, terminal.KeyUp},
		{tcell.KeyPgDn, terminal.KeyPageDown},
		{tcell.KeyF1, terminal.KeyF1},
		{tcell.KeyF12, terminal.KeyF12},
		{tcell.KeyF13, terminal.KeyNone},
	}

	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, convertKey(tc.in))
		})
	}
}

func TestConvertEvent(t *testing.T) {
	ev, ok := convertEvent(tcell.NewEventResize(100, 40))
	require.True(t, ok)
	assert.Equal(t, terminal.Event{Type: terminal.EventResize, Width: 100, Height: 40}, ev)

	_, ok = convertEvent(tcell.NewEventKey(tcell.KeyF13, 0, tcell.ModNone))
	assert.False(t, ok)

	ev, ok = convertEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt))
	require.True(t, ok)
	assert.Equal(t, 'x', ev.Rune)
	assert.Equal(t, terminal.ModAlt, ev.Modifiers)
}

func TestConvertEvent_CancelKeys(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		stop bool
	}{
		{"ctrl c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true},
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true},
		{"ctrl d", tcell.NewEventKey(tcell.KeyCtrlD, 0, tcell.ModCtrl), false},
		{"x", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := convertEvent(tc.ev)
			require.True(t, ok, "key event must reach the loop")
			stop, _ := rain.CancelKeys{}.Match(ev)
			assert.Equal(t, tc.stop, stop)
		})
	}
}
