package version

import (
	"fmt"

	"github.com/aatumaykin/subpurge/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// FormatStartupMessage is logged once when the scheduler starts.
func FormatStartupMessage(site string) string {
	return fmt.Sprintf("%s started for %s (version %s, build %s)", constants.AppName, site, Version, BuildTime)
}

// String returns the multi-line output of the version command.
func String() string {
	return fmt.Sprintf("%s %s\nBuild time: %s\nGit commit: %s\nGo version: %s",
		constants.AppName, Version, BuildTime, GitCommit, GoVersion)
}
