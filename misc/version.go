// Package misc keeps build time information.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// set by linker
var (
	version = "dev"
	githash = "unknown"
	appname = ""
)

// GetVersion returns version string set during build.
func GetVersion() string {
	return version
}

// GetGitHash returns commit hash set during build.
func GetGitHash() string {
	return githash
}

// GetAppName returns program name - either set during build or derived from
// executable.
func GetAppName() string {
	if len(appname) > 0 {
		return appname
	}
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}
