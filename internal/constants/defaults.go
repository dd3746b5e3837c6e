package constants

// AppName is the binary and product name used in logs and notices.
const AppName = "subpurge"

// AppTitle is the human-readable product name used in notification footers.
const AppTitle = "Subscriber Purge"

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"
