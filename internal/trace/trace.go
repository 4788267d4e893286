// Package trace provides minimal leveled diagnostics for class-loading and
// resolution boundaries. It is never on the hot bytecode-dispatch path and
// never required for correctness.
package trace

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

// SetOutput redirects diagnostics to w. Tests use this to capture or
// silence trace output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func emit(level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

// Info logs a routine diagnostic, e.g. a class finishing resolution.
func Info(format string, args ...interface{}) { emit("INFO", format, args...) }

// Warning logs a recoverable anomaly, e.g. falling back to a parent loader.
func Warning(format string, args ...interface{}) { emit("WARN", format, args...) }

// Error logs a failure the caller is about to propagate.
func Error(format string, args ...interface{}) { emit("ERROR", format, args...) }
