package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/lixenwraith/tiny-terminal/terminal"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Panic Recovery: the terminal may be in raw mode on the alternate screen
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			// \r\n keeps the trace readable if the mode reset did not take
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mTINY-TERMINAL CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit code
func execute(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "tiny-terminal: %v\n", err)
		if isUsageError(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Run 'tiny-terminal --help' for usage.")
		}
		return 1
	}
	return 0
}
