// Package version holds build version information. It is a separate package
// so both the cli and transfer layers can reference it without cycles.
package version

// Version is the build version string, set by ldflags during build:
//
//	-ldflags "-X github.com/datavault/dvcli/internal/version.Version=v1.2.3"
var Version = "dev"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"
