//go:build !linux

package terminal

// resetTerminalMode is a no-op where termios ioctls differ; the escape
// sequences written by EmergencyReset still apply
func resetTerminalMode() {}
