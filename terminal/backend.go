package terminal

// Backend abstracts the platform file descriptors behind a Terminal
type Backend interface {
	// Init enters raw mode
	Init() error

	// Fini restores the mode saved by Init
	Fini() error

	// Size reports the current dimensions in cells
	Size() (width, height int, err error)

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Read blocks until input is available, the stop channel is closed or an
	// error occurs. Empty data with a nil error means the wait timed out.
	Read(stopCh <-chan struct{}) ([]byte, error)
}
