package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGBTo256(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want uint8
	}{
		{"black", RGB{0, 0, 0}, 16},
		{"white", RGB{255, 255, 255}, 231},
		{"red", RGB{255, 0, 0}, 196},
		{"rain green", RGB{0, 255, 65}, 47},
		{"mid gray uses ramp", RGB{128, 128, 128}, 244},
		{"bright channels do not overflow", RGB{200, 200, 200}, 251},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RGBTo256(tc.in))
		})
	}
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("truecolor")
	require.NoError(t, err)
	assert.Equal(t, ColorModeTrueColor, m)

	m, err = ParseColorMode("256")
	require.NoError(t, err)
	assert.Equal(t, ColorMode256, m)

	t.Setenv("COLORTERM", "truecolor")
	m, err = ParseColorMode("auto")
	require.NoError(t, err)
	assert.Equal(t, ColorModeTrueColor, m)

	_, err = ParseColorMode("16")
	assert.Error(t, err)
}

func TestDetectColorMode(t *testing.T) {
	for _, k := range []string{"COLORTERM", "KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID", "ALACRITTY_WINDOW_ID", "WEZTERM_PANE"} {
		t.Setenv(k, "")
	}

	t.Setenv("TERM", "xterm-256color")
	assert.Equal(t, ColorMode256, DetectColorMode())

	t.Setenv("TERM", "xterm-direct")
	assert.Equal(t, ColorModeTrueColor, DetectColorMode())

	t.Setenv("TERM", "xterm")
	t.Setenv("WEZTERM_PANE", "1")
	assert.Equal(t, ColorModeTrueColor, DetectColorMode())
}
