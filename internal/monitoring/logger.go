// Package monitoring provides the replaceable package-level logger used by
// library code that should not write to the process log directly.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// debugEnabled is read once at startup; high-frequency per-frame logging is
// off unless PITCH_DEBUG is set.
var debugEnabled = os.Getenv("PITCH_DEBUG") != ""

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs through Logf only when PITCH_DEBUG is set in the environment.
// Use it for per-frame telemetry that would otherwise swamp the process log.
func Debugf(format string, v ...interface{}) {
	if debugEnabled {
		Logf(format, v...)
	}
}

// SetDebug overrides the PITCH_DEBUG gate, mainly for tests.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}
