//go:build !unix

package terminal

import "errors"

var errUnsupported = errors.New("native terminal backend requires a unix system")

// ErrNotTerminal is returned by Init when stdin is not a tty
var ErrNotTerminal = errUnsupported

type unsupportedBackend struct{}

func newBackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Init() error                          { return errUnsupported }
func (unsupportedBackend) Fini() error                          { return nil }
func (unsupportedBackend) Size() (int, int, error)              { return 0, 0, errUnsupported }
func (unsupportedBackend) Write([]byte) error                   { return errUnsupported }
func (unsupportedBackend) Read(<-chan struct{}) ([]byte, error) { return nil, errUnsupported }
