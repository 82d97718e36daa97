//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// EnableColorOutput reports whether log levels written to stream may be
// colored.
func EnableColorOutput(stream *os.File) bool {
	return !colorDisabled() && term.IsTerminal(int(stream.Fd()))
}
