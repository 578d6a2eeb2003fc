package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrClosed is returned by drawing calls outside Init/Fini
var ErrClosed = errors.New("terminal not initialized")

// Terminal streams ANSI output to a Backend and decodes its input.
// Drawing calls are buffered until Flush; the first write error sticks
// and is returned by every later call.
type Terminal struct {
	backend   Backend
	colorMode ColorMode
	out       *bufio.Writer
	input     *inputReader

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// backendWriter adapts Backend.Write to io.Writer for bufio
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// New returns a Terminal on the process stdin/stdout
func New(colorMode ColorMode) *Terminal {
	return NewWithBackend(newBackend(), colorMode)
}

// NewWithBackend returns a Terminal driving the given backend
func NewWithBackend(b Backend, colorMode ColorMode) *Terminal {
	return &Terminal{
		backend:   b,
		colorMode: colorMode,
		out:       bufio.NewWriterSize(backendWriter{b}, 64*1024),
	}
}

// ColorMode returns the colour encoding used for SetForeground
func (t *Terminal) ColorMode() ColorMode {
	return t.colorMode
}

// Init enters raw mode and the alternate screen, hides the cursor and
// starts the input reader. Calling Init twice is a no-op.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if err := t.backend.Init(); err != nil {
		return err
	}

	t.out.Write(csiAltScreenEnter)
	t.out.Write(csiCursorHide)
	t.out.Write(csiAutoWrapOff)
	t.out.Write(csiClear)
	if err := t.out.Flush(); err != nil {
		return errors.Join(fmt.Errorf("enter alternate screen: %w", err), t.backend.Fini())
	}

	t.input = newInputReader(t.backend)
	t.input.start()

	t.initialized = true
	return nil
}

// Fini stops input, leaves the alternate screen and restores the saved mode.
// Safe to call multiple times; only the first call does work.
func (t *Terminal) Fini() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return nil
	}
	t.finalized = true

	t.input.stop()

	// A sticky writer error from the run would swallow the restore sequence
	t.out.Reset(backendWriter{t.backend})
	t.out.Write(csiSGR0)
	t.out.Write(csiCursorShow)
	t.out.Write(csiAltScreenExit)
	t.out.Write(csiAutoWrapOn)

	var errs []error
	if err := t.out.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("leave alternate screen: %w", err))
	}
	if err := t.backend.Fini(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Size returns the current dimensions in cells
func (t *Terminal) Size() (int, int, error) {
	return t.backend.Size()
}

// write runs fn against the buffered writer when the terminal is live
func (t *Terminal) write(fn func(w *bufio.Writer)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return ErrClosed
	}
	fn(t.out)
	// bufio keeps the first write error; surface it on the call that hit it
	_, err := t.out.Write(nil)
	return err
}

// Clear erases the screen and homes the cursor
func (t *Terminal) Clear() error {
	return t.write(func(w *bufio.Writer) { w.Write(csiClear) })
}

func (t *Terminal) HideCursor() error {
	return t.write(func(w *bufio.Writer) { w.Write(csiCursorHide) })
}

func (t *Terminal) ShowCursor() error {
	return t.write(func(w *bufio.Writer) { w.Write(csiCursorShow) })
}

// MoveTo positions the cursor at 0-indexed column x, row y
func (t *Terminal) MoveTo(x, y int) error {
	return t.write(func(w *bufio.Writer) { writeCursorPos(w, x, y) })
}

// SetForeground sets the colour of subsequent glyphs
func (t *Terminal) SetForeground(c RGB) error {
	return t.write(func(w *bufio.Writer) { writeForeground(w, t.colorMode, c) })
}

// ResetColor restores the default foreground
func (t *Terminal) ResetColor() error {
	return t.write(func(w *bufio.Writer) { w.Write(csiDefaultFg) })
}

// Print writes a glyph at the cursor
func (t *Terminal) Print(r rune) error {
	return t.write(func(w *bufio.Writer) { w.WriteRune(r) })
}

// Flush sends buffered output to the terminal
func (t *Terminal) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return ErrClosed
	}
	return t.out.Flush()
}

// PollEvent returns the next input event. With timeout <= 0 it never waits;
// otherwise it waits up to timeout. The bool reports whether an event was
// returned. Read failures of the input reader are returned as errors.
func (t *Terminal) PollEvent(timeout time.Duration) (Event, bool, error) {
	t.mu.Lock()
	input := t.input
	live := t.initialized && !t.finalized
	t.mu.Unlock()

	if !live {
		return Event{}, false, ErrClosed
	}

	var ev Event
	if timeout <= 0 {
		select {
		case ev = <-input.events():
		default:
			return Event{}, false, nil
		}
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case ev = <-input.events():
		case <-timer.C:
			return Event{}, false, nil
		}
	}

	if ev.Type == EventError {
		return ev, false, fmt.Errorf("read input: %w", ev.Err)
	}
	return ev, true, nil
}

// EmergencyReset restores a sane terminal from a panic path where Fini cannot run
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences do not restore termios
	resetTerminalMode()
}
