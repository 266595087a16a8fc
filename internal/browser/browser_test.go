package browser

import "testing"

func TestOpenRejectsNonHTTP(t *testing.T) {
	var launched []string
	start = func(name string, args ...string) error {
		launched = append(launched, args[len(args)-1])
		return nil
	}
	t.Cleanup(func() { start = defaultStart })

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://twitter.com/i/web/status/42", false},
		{"http://example.com", false},
		{"https://", true},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Open(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%q): error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
	if len(launched) != 2 {
		t.Errorf("expected 2 launches, got %v", launched)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		name, args := command(tt.goos, "https://example.com")
		if name != tt.want {
			t.Errorf("command(%s) = %s, want %s", tt.goos, name, tt.want)
		}
		if args[len(args)-1] != "https://example.com" {
			t.Errorf("command(%s): URL not passed last: %v", tt.goos, args)
		}
	}
}
