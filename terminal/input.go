package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey    EventType = iota
	EventResize           // emitted by adapters that track resizes themselves
	EventError            // read error, see Event.Err
	EventClosed           // input stream ended
)

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Width     int
	Height    int
	Err       error
}

// escapeTimeout is how long a lone ESC waits for the rest of a sequence
const escapeTimeout = 50 * time.Millisecond

// stopTimeout bounds how long stop waits for a reader stuck in Read
const stopTimeout = 500 * time.Millisecond

// inputReader turns backend bytes into events on a buffered channel
type inputReader struct {
	backend Backend
	eventCh chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool

	// pending holds an incomplete escape or UTF-8 sequence across reads
	pending []byte
}

func newInputReader(backend Backend) *inputReader {
	return &inputReader{
		backend: backend,
		eventCh: make(chan Event, 256),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		pending: make([]byte, 0, 256),
	}
}

func (r *inputReader) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	go r.readLoop()
}

func (r *inputReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	select {
	case <-r.doneCh:
	case <-time.After(stopTimeout):
	}
}

func (r *inputReader) events() <-chan Event {
	return r.eventCh
}

func (r *inputReader) readLoop() {
	defer close(r.doneCh)

	defer func() {
		if p := recover(); p != nil {
			EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT READER CRASHED: %v\x1b[0m\r\n", p)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		data, err := r.backend.Read(r.stopCh)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.sendEvent(Event{Type: EventClosed})
			} else {
				r.sendEvent(Event{Type: EventError, Err: err})
			}
			return
		}

		if len(data) == 0 {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.flushPending()
			continue
		}

		r.pending = append(r.pending, data...)
		consumed := r.parseInput(r.pending)
		n := copy(r.pending, r.pending[consumed:])
		r.pending = r.pending[:n]
	}
}

// flushPending runs after a quiet period. An escape sequence still incomplete
// by then was typed by hand: ESC is the Escape key and the rest is plain input.
func (r *inputReader) flushPending() {
	if len(r.pending) == 0 || r.pending[0] != 0x1b {
		return
	}
	r.sendEvent(Event{Type: EventKey, Key: KeyEscape})
	rest := r.pending[1:]
	consumed := r.parseInput(rest)
	n := copy(r.pending, rest[consumed:])
	r.pending = r.pending[:n]
}

// parseInput emits events for every complete sequence in data and returns
// the number of bytes consumed
func (r *inputReader) parseInput(data []byte) int {
	i := 0
	for i < len(data) {
		b := data[i]

		switch {
		case b >= 0x20 && b < 0x7f:
			r.sendEvent(Event{Type: EventKey, Key: KeyRune, Rune: rune(b)})
			i++

		case b == 0x1b:
			consumed, ev := parseEscape(data[i:])
			if consumed == 0 {
				return i
			}
			if ev.Key != KeyNone {
				r.sendEvent(ev)
			}
			i += consumed

		case b < 0x20:
			r.sendEvent(parseControl(b))
			i++

		case b == 0x7f:
			r.sendEvent(Event{Type: EventKey, Key: KeyBackspace})
			i++

		default:
			if !utf8.FullRune(data[i:]) {
				return i
			}
			rn, size := utf8.DecodeRune(data[i:])
			if rn != utf8.RuneError || size > 1 {
				r.sendEvent(Event{Type: EventKey, Key: KeyRune, Rune: rn})
			}
			i += size
		}
	}
	return i
}

// parseEscape decodes a sequence starting with ESC; 0 means more bytes are needed
func parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}

	switch next := data[1]; {
	case next == 0x1b:
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}
	case next == '[':
		return parseCSI(data)
	case next == 'O':
		return parseSS3(data)
	case next < 0x20:
		ev := parseControl(next)
		ev.Modifiers |= ModAlt
		return 2, ev
	case next < 0x7f:
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(next), Modifiers: ModAlt}
	}

	// ESC followed by a non-ASCII byte: report the Escape and leave the byte
	return 1, Event{Type: EventKey, Key: KeyEscape}
}

// maxCSILength bounds the scan for a CSI terminator
const maxCSILength = 16

func parseCSI(data []byte) (int, Event) {
	for end := 2; end < len(data); end++ {
		if end >= maxCSILength {
			// Runaway sequence: drop the introducer and resync
			return 2, Event{}
		}
		b := data[end]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			if key, mod, ok := lookupCSI(data[2 : end+1]); ok {
				return end + 1, Event{Type: EventKey, Key: key, Modifiers: mod}
			}
			return end + 1, Event{}
		}
		if b < 0x20 || b > 0x7e {
			return end, Event{}
		}
	}
	return 0, Event{}
}

func parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if key, mod, ok := lookupSS3(data[2:3]); ok {
		return 3, Event{Type: EventKey, Key: key, Modifiers: mod}
	}
	return 3, Event{}
}

// parseControl maps C0 control bytes to keys
func parseControl(b byte) Event {
	var k Key
	switch b {
	case 0x00:
		k = KeyCtrlSpace
	case 0x08:
		k = KeyBackspace
	case 0x09:
		k = KeyTab
	case 0x0a, 0x0d:
		k = KeyEnter
	case 0x1b:
		k = KeyEscape
	case 0x1c:
		k = KeyCtrlBackslash
	case 0x1d:
		k = KeyCtrlBracketRight
	case 0x1e:
		k = KeyCtrlCaret
	case 0x1f:
		k = KeyCtrlUnderscore
	default:
		k = ctrlLetter(b)
	}
	return Event{Type: EventKey, Key: k}
}

// ControlKey maps a C0 control byte to its key, KeyNone when it has no name
func ControlKey(b byte) Key {
	return parseControl(b).Key
}

// ctrlLetterKeys indexes Ctrl+letter keys by letter offset; zero marks letters
// that alias other keys
var ctrlLetterKeys = [26]Key{
	KeyCtrlA, KeyCtrlB, KeyCtrlC, KeyCtrlD, KeyCtrlE, KeyCtrlF, KeyCtrlG,
	0, 0, 0, // H, I, J
	KeyCtrlK, KeyCtrlL,
	0, // M
	KeyCtrlN, KeyCtrlO, KeyCtrlP, KeyCtrlQ, KeyCtrlR, KeyCtrlS, KeyCtrlT,
	KeyCtrlU, KeyCtrlV, KeyCtrlW, KeyCtrlX, KeyCtrlY, KeyCtrlZ,
}

func ctrlLetter(b byte) Key {
	if b >= 0x01 && b <= 0x1a {
		return ctrlLetterKeys[b-1]
	}
	return KeyNone
}

// sendEvent drops the event when the consumer is too far behind
func (r *inputReader) sendEvent(ev Event) {
	select {
	case r.eventCh <- ev:
	default:
	}
}
