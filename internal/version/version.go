// Package version reports the bridge build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/symbrkrs/emcbridge/internal/version.Version=v1.2.3 \
//	                   -X github.com/symbrkrs/emcbridge/internal/version.Commit=abc123"
//
// Otherwise they come from the VCS stamp in the build info, or fall back to
// a dev version.
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		rev, modified, at := vcsStamp()
		if Commit == "" && rev != "" {
			Commit = shortRevision(rev, modified)
		}
		if Version == "" && !at.IsZero() {
			Version = "dev-" + at.Format("20060102")
		}
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// vcsStamp reads the revision, dirty flag and commit time recorded by the Go
// toolchain when building from a git checkout.
func vcsStamp() (rev string, modified bool, at time.Time) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false, time.Time{}
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		case "vcs.time":
			at, _ = time.Parse(time.RFC3339, s.Value)
		}
	}
	return rev, modified, at
}

func shortRevision(rev string, modified bool) string {
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if modified {
		rev += "-dirty"
	}
	return rev
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies a component in HTTP headers, e.g.
// "emcbridge-cli/v1.2.3 (linux/arm64)".
func UserAgent(component string) string {
	return fmt.Sprintf("%s/%s (%s/%s)", component, Version, runtime.GOOS, runtime.GOARCH)
}
