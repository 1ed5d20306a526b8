// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Short is the name and version only.
func Short() string {
	return "voiceflow " + Version
}

func String() string {
	return fmt.Sprintf("%s (commit=%s, date=%s, go=%s)", Short(), Commit, Date, runtime.Version())
}
