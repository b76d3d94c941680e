package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}
	if info.BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if info.Platform == "" {
		t.Error("Platform should not be empty")
	}
}

func TestGetBuildInfo_ParsesValidDate(t *testing.T) {
	originalBuildDate := BuildDate
	defer func() { BuildDate = originalBuildDate }()

	validDate := "2026-01-13T20:00:00Z"
	BuildDate = validDate

	info := GetBuildInfo()
	expectedTime, _ := time.Parse(time.RFC3339, validDate)
	if !info.BuildTime.Equal(expectedTime) {
		t.Errorf("BuildTime = %v, want %v", info.BuildTime, expectedTime)
	}
}

func TestApplyVCS(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-02-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	info := BuildInfo{GitCommit: unknown, BuildDate: unknown}
	applyVCS(&info, settings)
	if info.GitCommit != "0123456789ab" {
		t.Errorf("GitCommit = %q, want short revision", info.GitCommit)
	}
	if info.BuildDate != "2026-02-01T10:00:00Z" {
		t.Errorf("BuildDate = %q", info.BuildDate)
	}
	if !info.Dirty {
		t.Error("Dirty should be set from vcs.modified")
	}

	injected := BuildInfo{GitCommit: "release", BuildDate: "2026-01-01T00:00:00Z"}
	applyVCS(&injected, settings)
	if injected.GitCommit != "release" || injected.BuildDate != "2026-01-01T00:00:00Z" {
		t.Errorf("ldflags values must win over VCS stamp, got %+v", injected)
	}
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-01-13T20:00:00Z", GoVersion: "go1.25.0", Platform: "linux/amd64"}
	want := "navshell 1.2.3 (commit abc123, built 2026-01-13T20:00:00Z, go1.25.0 linux/amd64)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info.Dirty = true
	want = "navshell 1.2.3 (commit abc123+dirty, built 2026-01-13T20:00:00Z, go1.25.0 linux/amd64)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
