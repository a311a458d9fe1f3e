// Package debug holds the global verbose-output switches set by -debug and
// -debug-frames. Output is plain text for humans watching a terminal;
// structured logs go through slog.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Enabled controls whether debug output is shown
var Enabled bool

// Frames controls whether per-frame decode output is shown.
// These fire several times a second while scanning; use -debug-frames.
var Frames bool

var (
	mu     sync.Mutex
	output io.Writer = os.Stdout
)

// SetOutput redirects debug output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = w
	return prev
}

func write(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, format, args...)
}

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		write(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		write("%s\n", msg)
	}
}

// FrameLog prints a message only if frame debug mode is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		write(format, args...)
	}
}
