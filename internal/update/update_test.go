package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func releaseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github+json" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		current string
		status  int
		body    string
		want    string
	}{
		{"newer release", "v0.1.0", http.StatusOK, `{"tag_name":"v0.2.0"}`, "0.2.0"},
		{"same version", "0.2.0", http.StatusOK, `{"tag_name":"v0.2.0"}`, ""},
		{"server error", "0.1.0", http.StatusInternalServerError, ``, ""},
		{"bad json", "0.1.0", http.StatusOK, `{`, ""},
		{"empty tag", "0.1.0", http.StatusOK, `{}`, ""},
		{"dev build", "dev", http.StatusOK, `{"tag_name":"v0.2.0"}`, ""},
	}
	for _, tt := range tests {
		srv := releaseServer(t, tt.status, tt.body)
		res := Checker{URL: srv.URL, Client: srv.Client()}.Check(context.Background(), tt.current)
		got := ""
		if res != nil {
			got = res.LatestVersion
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}
