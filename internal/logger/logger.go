// Package logger is a thin leveled wrapper around the standard log package.
//
// Verbosity levels, in increasing order: Error < Info < Debug < Trace.
// Call SetVerbosity once after flag parsing; everything at or below the
// configured level is written to stderr.
package logger

import (
	"log"
	"os"
)

// Level is a logging verbosity level. Higher means more verbose.
type Level int

const (
	Error Level = iota
	Info
	Debug
	Trace
)

var current Level = Info

func init() {
	// Logs go to stderr so they never mix with CLI output on stdout.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// SetVerbosity sets the global verbosity. Typically called once at startup.
func SetVerbosity(v int) {
	current = Level(v)
}

func logf(l Level, prefix, format string, args ...any) {
	if current >= l {
		log.Printf(prefix+format, args...)
	}
}

// Errorf logs failures that require attention.
func Errorf(format string, args ...any) { logf(Error, "[ERROR] ", format, args...) }

// Infof logs major lifecycle events.
func Infof(format string, args ...any) { logf(Info, "[INFO]  ", format, args...) }

// Debugf logs diagnostic detail.
func Debugf(format string, args ...any) { logf(Debug, "[DEBUG] ", format, args...) }

// Tracef logs very fine-grained execution detail.
func Tracef(format string, args ...any) { logf(Trace, "[TRACE] ", format, args...) }
