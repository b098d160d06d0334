package version

import (
	"regexp"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(v) {
		t.Errorf("Get() = %q, want a semantic version", v)
	}
}

func TestFull(t *testing.T) {
	if !strings.HasPrefix(Full(), Get()) {
		t.Errorf("Full() = %q, want prefix %q", Full(), Get())
	}
}

func TestWithRevision(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"no vcs", nil, "1.0.0"},
		{"short", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}}, "1.0.0 (abc123)"},
		{
			"long and dirty",
			[]debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.modified", Value: "true"},
			},
			"1.0.0 (0123456789ab-dirty)",
		},
	}
	for _, tt := range tests {
		if got := withRevision("1.0.0", tt.settings); got != tt.want {
			t.Errorf("%s: withRevision() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
