package main

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/tiny-terminal/config"
	"github.com/lixenwraith/tiny-terminal/effect"
	"github.com/lixenwraith/tiny-terminal/rain"
	"github.com/lixenwraith/tiny-terminal/terminal"
	"github.com/lixenwraith/tiny-terminal/terminal/tcellterm"
)

// errUsage marks bad flag values, as opposed to failures while running
var errUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func isUsageError(err error) bool {
	return errors.Is(err, errUsage)
}

const (
	backendANSI  = "ansi"
	backendTcell = "tcell"
)

// flags holds the parsed command line
type flags struct {
	effect     string
	configPath string
	fps        int
	density    float64
	cancelKey  string
	color      string
	backend    string
	debug      bool
}

// newSurface is swapped in tests to avoid touching the real terminal
var newSurface = func(backend string, mode terminal.ColorMode) (rain.Surface, error) {
	switch backend {
	case backendANSI:
		return terminal.New(mode), nil
	case backendTcell:
		return tcellterm.New(mode)
	}
	return nil, usageErrorf("unknown backend %q (want %s or %s)", backend, backendANSI, backendTcell)
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "tiny-terminal",
		Short: "Digital rain in the terminal",
		Long: `tiny-terminal fills the terminal with falling glyphs until q, Escape or
Ctrl+C is pressed.

Configuration is read from the first usable source of:
  --config <path>
  .tiny-terminal.toml in the working directory or an ancestor
  <user config dir>/tiny-terminal/config.toml
  built-in defaults`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEffect(cmd, f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "configuration file path")
	pf.BoolVar(&f.debug, "debug", false, "write debug logs to logs/tiny-terminal.log")

	fl := cmd.Flags()
	fl.StringVar(&f.effect, "effect", effect.Default, "effect to run: "+strings.Join(effect.Names(), ", "))
	fl.IntVar(&f.fps, "fps", config.DefaultFPS, "frames per second, overrides the configuration")
	fl.Float64Var(&f.density, "density", config.DefaultDensity, "new drops per column per frame, overrides the configuration")
	fl.StringVar(&f.cancelKey, "cancel-key", "", "additional key that stops the effect")
	fl.StringVar(&f.color, "color", "auto", "color mode: auto, truecolor, 256")
	fl.StringVar(&f.backend, "backend", backendANSI, "terminal backend: ansi, tcell")

	cmd.AddCommand(newConfigCmd(f))
	return cmd
}

// overrides collects the flags the user set explicitly
func (f *flags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	if cmd.Flags().Changed("fps") {
		o.FPS = &f.fps
	}
	if cmd.Flags().Changed("density") {
		o.Density = &f.density
	}
	return o
}

// cancelRune parses --cancel-key, which must be exactly one character
func (f *flags) cancelRune() (rune, error) {
	if f.cancelKey == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(f.cancelKey) != 1 {
		return 0, usageErrorf("--cancel-key must be a single character, got %q", f.cancelKey)
	}
	r, _ := utf8.DecodeRuneInString(f.cancelKey)
	return r, nil
}

// colorMode resolves --color. tcell probes the terminal itself, so auto
// hands it RGB and lets it downsample.
func (f *flags) colorMode() (terminal.ColorMode, error) {
	if f.backend == backendTcell && strings.EqualFold(f.color, "auto") {
		return terminal.ColorModeTrueColor, nil
	}
	mode, err := terminal.ParseColorMode(f.color)
	if err != nil {
		return mode, usageErrorf("%v", err)
	}
	return mode, nil
}

func runEffect(cmd *cobra.Command, f *flags) error {
	logger, closeLog, err := setupLogging(f.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	runner, ok := effect.Lookup(f.effect)
	if !ok {
		return usageErrorf("unknown effect %q (available: %s)", f.effect, strings.Join(effect.Names(), ", "))
	}
	extra, err := f.cancelRune()
	if err != nil {
		return err
	}
	mode, err := f.colorMode()
	if err != nil {
		return err
	}

	resolved := config.Load(f.configPath, config.WithLogger(logger))
	cfg, err := resolved.Config.Override(f.overrides(cmd))
	if err != nil {
		return usageErrorf("%v", err)
	}
	if wide := cfg.WideGlyphs(); len(wide) > 0 {
		logger.Warn("charset glyphs wider than column width",
			zap.String("glyphs", string(wide)),
			zap.Int("column_width", cfg.ColumnWidth))
	}

	surface, err := newSurface(f.backend, mode)
	if err != nil {
		return err
	}
	logger.Debug("starting effect",
		zap.String("effect", f.effect),
		zap.String("backend", f.backend),
		zap.Stringer("color_mode", mode),
		zap.Int("fps", cfg.FPS),
		zap.Float64("density", cfg.Density))

	stats, err := runner(cmd.Context(), surface, rain.Options{
		Config: cfg,
		Cancel: rain.CancelKeys{Extra: extra},
		Logger: logger,
	})
	logger.Debug("effect finished",
		zap.Int("frames", stats.Frames),
		zap.Int("spawned", stats.Spawned),
		zap.Int("culled", stats.Culled),
		zap.Int("slow_frames", stats.SlowFrames),
		zap.Int("resizes", stats.Resizes),
		zap.String("stop_reason", stats.StopReason))
	if err != nil {
		logger.Error("effect failed", zap.Error(err))
		return err
	}
	return nil
}
