// Package tcellterm adapts a tcell screen to the drawing surface used by the
// render loop. Colour downsampling and cell diffing are left to tcell.
package tcellterm

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

// stopTimeout bounds how long Fini waits for the event pump
const stopTimeout = 500 * time.Millisecond

// Terminal draws through a tcell.Screen
type Terminal struct {
	screen    tcell.Screen
	colorMode terminal.ColorMode

	mu          sync.Mutex
	initialized bool
	finalized   bool
	x, y        int
	style       tcell.Style

	events chan terminal.Event
	done   chan struct{}
}

// New opens the controlling terminal through tcell
func New(colorMode terminal.ColorMode) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen, colorMode), nil
}

// NewWithScreen wraps an existing screen, e.g. a simulation screen
func NewWithScreen(screen tcell.Screen, colorMode terminal.ColorMode) *Terminal {
	return &Terminal{
		screen:    screen,
		colorMode: colorMode,
		style:     tcell.StyleDefault,
		events:    make(chan terminal.Event, 256),
		done:      make(chan struct{}),
	}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	t.screen.Clear()

	t.initialized = true
	go t.pump()
	return nil
}

// Fini restores the terminal and waits for the event pump to exit
func (t *Terminal) Fini() error {
	t.mu.Lock()
	if !t.initialized || t.finalized {
		t.mu.Unlock()
		return nil
	}
	t.finalized = true
	t.screen.Fini()
	t.mu.Unlock()

	select {
	case <-t.done:
	case <-time.After(stopTimeout):
	}
	return nil
}

// pump forwards tcell events until PollEvent reports the screen is finalised
func (t *Terminal) pump() {
	defer close(t.done)

	defer func() {
		if p := recover(); p != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mEVENT PUMP CRASHED: %v\x1b[0m\r\n", p)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		out, ok := convertEvent(ev)
		if !ok {
			continue
		}
		select {
		case t.events <- out:
		default:
		}
	}
}

func (t *Terminal) Size() (int, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.live() {
		return 0, 0, terminal.ErrClosed
	}
	w, h := t.screen.Size()
	return w, h, nil
}

func (t *Terminal) live() bool {
	return t.initialized && !t.finalized
}

// with runs fn under the lock when the screen is live
func (t *Terminal) with(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.live() {
		return terminal.ErrClosed
	}
	fn()
	return nil
}

func (t *Terminal) Clear() error {
	return t.with(func() {
		t.screen.Clear()
		t.x, t.y = 0, 0
	})
}

func (t *Terminal) HideCursor() error {
	return t.with(t.screen.HideCursor)
}

func (t *Terminal) ShowCursor() error {
	return t.with(func() { t.screen.ShowCursor(t.x, t.y) })
}

func (t *Terminal) MoveTo(x, y int) error {
	return t.with(func() { t.x, t.y = x, y })
}

// SetForeground selects the glyph colour; in 256-colour mode the nearest
// palette entry is used
func (t *Terminal) SetForeground(c terminal.RGB) error {
	return t.with(func() { t.style = tcell.StyleDefault.Foreground(t.color(c)) })
}

func (t *Terminal) color(c terminal.RGB) tcell.Color {
	if t.colorMode == terminal.ColorMode256 {
		return tcell.PaletteColor(int(terminal.RGBTo256(c)))
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (t *Terminal) ResetColor() error {
	return t.with(func() { t.style = tcell.StyleDefault })
}

// Print places r at the cursor and advances it by the glyph width
func (t *Terminal) Print(r rune) error {
	return t.with(func() {
		t.screen.SetContent(t.x, t.y, r, nil, t.style)
		t.x += max(1, runewidth.RuneWidth(r))
	})
}

func (t *Terminal) Flush() error {
	return t.with(t.screen.Show)
}

// PollEvent mirrors terminal.Terminal.PollEvent
func (t *Terminal) PollEvent(timeout time.Duration) (terminal.Event, bool, error) {
	t.mu.Lock()
	live := t.live()
	t.mu.Unlock()

	if !live {
		return terminal.Event{}, false, terminal.ErrClosed
	}

	if timeout <= 0 {
		select {
		case ev := <-t.events:
			return ev, true, nil
		default:
			return terminal.Event{}, false, nil
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-t.events:
		return ev, true, nil
	case <-timer.C:
		return terminal.Event{}, false, nil
	}
}

// convertEvent converts tcell events to terminal events; other kinds are dropped
func convertEvent(ev tcell.Event) (terminal.Event, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		k := convertKey(e.Key())
		if k == terminal.KeyNone {
			return terminal.Event{}, false
		}
		out := terminal.Event{
			Type:      terminal.EventKey,
			Key:       k,
			Modifiers: convertMod(e.Modifiers()),
		}
		if k == terminal.KeyRune {
			out.Rune = e.Rune()
		}
		return out, true

	case *tcell.EventResize:
		w, h := e.Size()
		return terminal.Event{Type: terminal.EventResize, Width: w, Height: h}, true
	}
	return terminal.Event{}, false
}

// convertKey converts tcell key to terminal key. Named control keys keep
// their ASCII value; a typed Ctrl+letter arrives offset from KeyCtrlSpace.
func convertKey(k tcell.Key) terminal.Key {
	if k < 0x20 {
		return terminal.ControlKey(byte(k))
	}
	if k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore {
		return terminal.ControlKey(byte(k - tcell.KeyCtrlSpace))
	}
	switch k {
	case tcell.KeyRune:
		return terminal.KeyRune
	case tcell.KeyBackspace2:
		return terminal.KeyBackspace
	case tcell.KeyBacktab:
		return terminal.KeyBacktab
	case tcell.KeyDelete:
		return terminal.KeyDelete
	case tcell.KeyInsert:
		return terminal.KeyInsert
	case tcell.KeyHome:
		return terminal.KeyHome
	case tcell.KeyEnd:
		return terminal.KeyEnd
	case tcell.KeyPgUp:
		return terminal.KeyPageUp
	case tcell.KeyPgDn:
		return terminal.KeyPageDown
	case tcell.KeyUp:
		return terminal.KeyUp
	case tcell.KeyDown:
		return terminal.KeyDown
	case tcell.KeyLeft:
		return terminal.KeyLeft
	case tcell.KeyRight:
		return terminal.KeyRight
	}
	if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
		return terminal.KeyF1 + terminal.Key(k-tcell.KeyF1)
	}
	return terminal.KeyNone
}

func convertMod(m tcell.ModMask) terminal.Modifier {
	var result terminal.Modifier
	if m&tcell.ModShift != 0 {
		result |= terminal.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= terminal.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= terminal.ModAlt
	}
	return result
}
