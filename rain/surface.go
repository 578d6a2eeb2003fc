package rain

import (
	"time"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

// Surface is the terminal capability the render loop draws on.
// Init acquires raw mode, the alternate screen and a hidden cursor; Fini
// releases them. PollEvent must return immediately when timeout <= 0.
type Surface interface {
	Init() error
	Fini() error
	Size() (width, height int, err error)
	Clear() error
	HideCursor() error
	ShowCursor() error
	MoveTo(x, y int) error
	SetForeground(c terminal.RGB) error
	ResetColor() error
	Print(r rune) error
	Flush() error
	PollEvent(timeout time.Duration) (terminal.Event, bool, error)
}

var _ Surface = (*terminal.Terminal)(nil)
