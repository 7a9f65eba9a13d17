package adk

import (
	"fmt"
	"os"
)

var DebugEnabled bool

// Debugf prints messages only if DebugEnabled is true
func Debugf(format string, args ...interface{}) {
	if DebugEnabled {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// Infof prints messages always (standard error, so stdout stays clean for reports)
func Infof(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Warnf prints degraded-path messages always
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}
