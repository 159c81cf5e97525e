// Package version provides build information for the coffeetrends binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains build information
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
	Module    string `json:"module"`
}

// Info returns the build information of the running binary
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Dirty:     strings.Contains(GitCommit, "-dirty"),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Module = bi.Main.Path
		if info.GitCommit == unknownValue {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.modified":
					info.Dirty = s.Value == "true"
				}
			}
		}
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("coffeetrends\n")
	fmt.Fprintf(&sb, "Version: %s", b.Version)
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue && b.BuildDate != "" {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}

	if b.GitCommit != unknownValue && b.GitCommit != "" {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		fmt.Fprintf(&sb, "Git Commit: %s\n", commit)
	}

	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)

	if b.Module != "" {
		fmt.Fprintf(&sb, "Module: %s\n", b.Module)
	}

	return sb.String()
}

// IsRelease returns true if this is a release version (not dev)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
