// Package rain renders falling-glyph "digital rain" onto a terminal surface.
package rain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/tiny-terminal/config"
	"github.com/lixenwraith/tiny-terminal/terminal"
)

// ErrTerminalIO wraps every surface failure that ends a run
var ErrTerminalIO = errors.New("terminal I/O")

// Options configures Run. Zero values select production defaults.
type Options struct {
	Config config.Config
	Cancel CancelKeys
	Tint   *terminal.RGB // nil selects GreenTint
	Clock  Clock
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Stats summarises a finished run
type Stats struct {
	Frames     int
	Spawned    int
	Culled     int
	SlowFrames int
	Resizes    int
	StopReason string
}

// loop holds the state carried between frames
type loop struct {
	surface Surface
	cfg     config.Config
	cancel  CancelKeys
	tint    terminal.RGB
	clock   Clock
	rng     *rand.Rand
	log     *zap.Logger

	field  *Field
	glyphs []rune
	frame  time.Duration

	width, height int
	sized         bool

	stats Stats
}

// Run animates until a cancel key, a surface error or ctx cancellation.
// The surface is initialised on entry and finalised on every exit path;
// a finalisation error is returned only when nothing failed before it.
func Run(ctx context.Context, s Surface, opts Options) (stats Stats, err error) {
	if err := opts.Config.Validate(); err != nil {
		return Stats{}, err
	}

	l := newLoop(s, opts)

	if err := s.Init(); err != nil {
		return Stats{}, fmt.Errorf("%w: init: %w", ErrTerminalIO, err)
	}
	defer func() {
		if ferr := s.Fini(); ferr != nil && err == nil {
			err = fmt.Errorf("%w: restore: %w", ErrTerminalIO, ferr)
		}
		stats = l.stats
	}()

	for {
		if ctx.Err() != nil {
			l.stats.StopReason = "context: " + context.Cause(ctx).Error()
			return l.stats, nil
		}

		done, err := l.step()
		if err != nil {
			return l.stats, fmt.Errorf("%w: %w", ErrTerminalIO, err)
		}
		if done {
			return l.stats, nil
		}
	}
}

func newLoop(s Surface, opts Options) *loop {
	l := &loop{
		surface: s,
		cfg:     opts.Config,
		cancel:  opts.Cancel,
		tint:    GreenTint,
		clock:   opts.Clock,
		rng:     opts.Rand,
		log:     opts.Logger,
		glyphs:  opts.Config.Glyphs(),
		frame:   FrameDuration(opts.Config.FPS),
	}
	if opts.Tint != nil {
		l.tint = *opts.Tint
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	l.field = NewField(l.cfg.ColumnWidth, l.cfg.Density, l.rng)
	return l
}

// step renders one frame and reports whether a cancel key was seen
func (l *loop) step() (bool, error) {
	frameStart := l.clock.Now()

	w, h, err := l.surface.Size()
	if err != nil {
		return false, fmt.Errorf("size: %w", err)
	}
	if l.sized && (w != l.width || h != l.height) {
		l.field.Reset()
		l.stats.Resizes++
		l.log.Debug("terminal resized", zap.Int("width", w), zap.Int("height", h))
	}
	l.width, l.height, l.sized = w, h, true

	l.stats.Spawned += l.field.Seed(w, h)

	if err := l.draw(h); err != nil {
		return false, err
	}

	l.stats.Culled += l.field.Cull(h)
	l.stats.Frames++

	ev, ok, err := l.surface.PollEvent(0)
	if err != nil {
		return false, fmt.Errorf("poll: %w", err)
	}
	if ok {
		if stop, key := l.cancel.Match(ev); stop {
			l.stats.StopReason = "key " + key
			return true, nil
		}
	}

	elapsed := l.clock.Now().Sub(frameStart)
	if elapsed < l.frame {
		l.clock.Sleep(l.frame - elapsed)
	} else {
		l.stats.SlowFrames++
	}
	return false, nil
}

// draw advances every drop and paints the visible heads on a cleared screen
func (l *loop) draw(height int) error {
	s := l.surface
	if err := s.HideCursor(); err != nil {
		return fmt.Errorf("hide cursor: %w", err)
	}
	if err := s.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	l.field.Advance()
	for _, d := range l.field.Drops() {
		if !d.Visible(height) {
			continue
		}
		if err := l.paint(d); err != nil {
			return err
		}
	}

	if err := s.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (l *loop) paint(d Drop) error {
	s := l.surface
	glyph := l.glyphs[l.rng.IntN(len(l.glyphs))]

	if l.cfg.Green {
		if err := s.SetForeground(l.tint); err != nil {
			return fmt.Errorf("set colour: %w", err)
		}
	}
	if err := s.MoveTo(d.Column, d.Row); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	if err := s.Print(glyph); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	if l.cfg.Green {
		if err := s.ResetColor(); err != nil {
			return fmt.Errorf("reset colour: %w", err)
		}
	}
	return nil
}
