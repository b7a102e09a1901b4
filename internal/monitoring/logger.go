// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger used by the ROI pipeline and
// the scene adapters. It defaults to log.Printf; tests or the CLI's -quiet
// flag replace it through SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture swaps in a logger that appends formatted lines to *lines and
// returns a function restoring the previous logger.
func Capture(lines *[]string) (restore func()) {
	prev := Logf
	Logf = func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	}
	return func() { Logf = prev }
}
