// Package terminal drives an ANSI terminal without a screen library.
//
// A Terminal owns raw mode, the alternate screen and cursor visibility for
// its lifetime. Output is streamed through a buffered writer and emitted on
// Flush; colours are written as 24-bit or nearest xterm-256 sequences
// depending on the ColorMode. Input is decoded by a reader goroutine into
// key events that PollEvent drains without blocking.
package terminal
