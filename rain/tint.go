package rain

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

// GreenHex is the phosphor green used when tinting is enabled
const GreenHex = "#00FF41"

// GreenTint is GreenHex as a terminal colour
var GreenTint = MustTint(GreenHex)

// ParseTint converts a #rrggbb string into a terminal colour
func ParseTint(hex string) (terminal.RGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return terminal.RGB{}, err
	}
	r, g, b := c.Clamped().RGB255()
	return terminal.RGB{R: r, G: g, B: b}, nil
}

// MustTint is ParseTint for constants
func MustTint(hex string) terminal.RGB {
	rgb, err := ParseTint(hex)
	if err != nil {
		panic(err)
	}
	return rgb
}
