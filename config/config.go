// Package config holds the rain configuration and resolves it from files.
package config

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/tiny-terminal/toml"
)

const (
	DefaultFPS         = 60
	DefaultColumnWidth = 2
	DefaultDensity     = 1.0
	DefaultCharset     = "ｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿ012345789@#$%&*"
	DefaultGreen       = true
)

var (
	// ErrParse marks a document that failed to parse, lacked a key or held invalid values
	ErrParse = errors.New("invalid configuration document")
	// ErrSourceUnavailable marks a source that does not exist or cannot be read
	ErrSourceUnavailable = errors.New("configuration source unavailable")
	// ErrInvalid marks a configuration value outside its allowed range
	ErrInvalid = errors.New("invalid configuration value")
)

// Config is the fully resolved effect configuration.
// Every key is required in a document; partial files do not merge with defaults.
type Config struct {
	FPS         int     `toml:"fps,required"`
	ColumnWidth int     `toml:"column_width,required"`
	Density     float64 `toml:"density,required"`
	Charset     string  `toml:"charset,required"`
	Green       bool    `toml:"green,required"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		FPS:         DefaultFPS,
		ColumnWidth: DefaultColumnWidth,
		Density:     DefaultDensity,
		Charset:     DefaultCharset,
		Green:       DefaultGreen,
	}
}

// Validate reports the first value outside its allowed range
func (c Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	case c.ColumnWidth <= 0:
		return fmt.Errorf("%w: column_width must be positive, got %d", ErrInvalid, c.ColumnWidth)
	case math.IsNaN(c.Density) || math.IsInf(c.Density, 0) || c.Density <= 0:
		return fmt.Errorf("%w: density must be a positive number, got %v", ErrInvalid, c.Density)
	case c.Charset == "":
		return fmt.Errorf("%w: charset is empty", ErrInvalid)
	case !utf8.ValidString(c.Charset):
		return fmt.Errorf("%w: charset is not valid UTF-8", ErrInvalid)
	}
	return nil
}

// Glyphs returns the charset split into runes
func (c Config) Glyphs() []rune {
	return []rune(c.Charset)
}

// WideGlyphs lists charset glyphs whose display width exceeds ColumnWidth.
// They still render but overlap the neighbouring column.
func (c Config) WideGlyphs() []rune {
	var wide []rune
	seen := make(map[rune]bool)
	for _, r := range c.Charset {
		if runewidth.RuneWidth(r) > c.ColumnWidth && !seen[r] {
			seen[r] = true
			wide = append(wide, r)
		}
	}
	return wide
}

// Overrides carries command-line values; nil fields leave the config untouched
type Overrides struct {
	FPS     *int
	Density *float64
}

// Override returns c with the set fields of o applied and validated
func (c Config) Override(o Overrides) (Config, error) {
	if o.FPS != nil {
		c.FPS = *o.FPS
	}
	if o.Density != nil {
		c.Density = *o.Density
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Parse decodes and validates a TOML document
func Parse(data []byte) (Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return c, nil
}

// MarshalTOML encodes c as a document Parse accepts
func (c Config) MarshalTOML() ([]byte, error) {
	return toml.Marshal(c)
}
