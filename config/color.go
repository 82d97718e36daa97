package config

import "os"

// colorDisabled reports whether environment asks for plain output, either
// with NO_COLOR (https://no-color.org) or a dumb terminal.
func colorDisabled() bool {
	return len(os.Getenv("NO_COLOR")) > 0 || os.Getenv("TERM") == "dumb"
}
