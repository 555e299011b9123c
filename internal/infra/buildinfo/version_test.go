package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s field should not be empty", tt.name)
			}
		})
	}
}

func TestString(t *testing.T) {
	info := Get()
	expected := info.Version + " (" + info.Commit + ") built at " + info.BuildTime
	if s := String(); s != expected {
		t.Errorf("String() = %q, want %q", s, expected)
	}
}

func TestResolve(t *testing.T) {
	embedded := &debug.BuildInfo{
		GoVersion: "go1.25.0",
		Main:      debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		},
	}
	read := func() (*debug.BuildInfo, bool) { return embedded, true }

	t.Run("defaults filled from build info", func(t *testing.T) {
		info := resolve("dev", "unknown", "unknown", read)
		if info.Version != "v1.2.3" {
			t.Errorf("Version = %q, want v1.2.3", info.Version)
		}
		if info.Commit != "0123456789ab" {
			t.Errorf("Commit = %q, want short revision", info.Commit)
		}
		if info.BuildTime != "2024-05-01T10:00:00Z" {
			t.Errorf("BuildTime = %q", info.BuildTime)
		}
		if info.GoVersion != "go1.25.0" {
			t.Errorf("GoVersion = %q", info.GoVersion)
		}
	})

	t.Run("ldflags win", func(t *testing.T) {
		info := resolve("v9.0.0", "abc", "yesterday", read)
		if info.Version != "v9.0.0" || info.Commit != "abc" || info.BuildTime != "yesterday" {
			t.Errorf("resolve() = %+v, want ldflags values kept", info)
		}
	})

	t.Run("no build info", func(t *testing.T) {
		info := resolve("dev", "unknown", "unknown", func() (*debug.BuildInfo, bool) { return nil, false })
		if info.Version != "dev" || !strings.HasPrefix(info.GoVersion, "go") {
			t.Errorf("resolve() = %+v", info)
		}
	})
}
