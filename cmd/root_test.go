package cmd

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"invalid", 0, true},
		{"", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSince(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("parseSince(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSince(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSinceTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := sinceTime("", now)
	if err != nil || !got.IsZero() {
		t.Errorf("empty flag: got %v, %v; want zero time", got, err)
	}

	got, err = sinceTime("2d", now)
	if err != nil {
		t.Fatalf("sinceTime: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := sinceTime("soon", now); err == nil {
		t.Error("expected error for invalid value")
	}
}

func TestDigestWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := digestWindow(time.Time{}, now); !got.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("expected last 24h by default, got %v", got)
	}
	since := now.Add(-7 * 24 * time.Hour)
	if got := digestWindow(since, now); !got.Equal(since) {
		t.Errorf("expected explicit since kept, got %v", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatBytes(512), "512 B"},
		{formatBytes(2048), "2.0 KB"},
		{formatBytes(3 << 20), "3.0 MB"},
		{formatDuration(30 * 24 * time.Hour), "30d"},
		{formatDuration(5 * time.Hour), "5h"},
		{plural(1, "y", "ies"), "y"},
		{plural(3, "y", "ies"), "ies"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"browse", "run", "scan", "extract", "digest", "prune", "stats", "show", "version"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if runCmd.Flags().Lookup("metrics-addr") == nil {
		t.Error("run: missing --metrics-addr flag")
	}
}
