// Package version provides build version information embedding.
package version

import (
	"runtime/debug"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

func init() {
	if Commit != "" {
		return
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				Commit = setting.Value
				if len(Commit) > 7 {
					Commit = Commit[:7]
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}
