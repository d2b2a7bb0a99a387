package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// mockHTTPDoer returns canned responses keyed by URL.
type mockHTTPDoer struct {
	responses map[string]*http.Response
	err       error
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	if resp, ok := m.responses[req.URL.String()]; ok {
		return resp, nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const indexBody = `{
  "releases": [
    {"version": "1.0.0", "url": "https://pkg.test/1.0.0.pkg", "size": 100, "sha256": "aa"},
    {"version": "1.2.0", "url": "https://pkg.test/1.2.0.pkg", "size": 120, "sha256": "bb"},
    {"version": "1.1.0", "url": "https://pkg.test/1.1.0.pkg", "size": 110, "sha256": "cc"},
    {"version": "garbage", "url": "https://pkg.test/x.pkg", "size": 1, "sha256": "dd"}
  ]
}`

func TestLatest(t *testing.T) {
	doer := &mockHTTPDoer{responses: map[string]*http.Response{
		"https://feed.test/index.json": jsonResponse(indexBody),
	}}
	c := NewWith("https://feed.test/", doer)

	latest, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Version != "1.2.0" {
		t.Errorf("latest version = %s, want 1.2.0", latest.Version)
	}
	if latest.Size != 120 {
		t.Errorf("latest size = %d, want 120", latest.Size)
	}
}

func TestLatestEmptyIndex(t *testing.T) {
	doer := &mockHTTPDoer{responses: map[string]*http.Response{
		"https://feed.test/index.json": jsonResponse(`{"releases": []}`),
	}}
	if _, err := NewWith("https://feed.test", doer).Latest(context.Background()); err == nil {
		t.Error("expected error for empty index")
	}
}

func TestIndexErrors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		c := NewWith("https://feed.test", &mockHTTPDoer{})
		if _, err := c.Index(context.Background()); err == nil {
			t.Error("expected error for missing index")
		}
	})

	t.Run("TransportFailure", func(t *testing.T) {
		c := NewWith("https://feed.test", &mockHTTPDoer{err: fmt.Errorf("timeout")})
		if _, err := c.Index(context.Background()); err == nil {
			t.Error("expected error for transport failure")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		doer := &mockHTTPDoer{responses: map[string]*http.Response{
			"https://feed.test/index.json": jsonResponse("{not json"),
		}}
		if _, err := NewWith("https://feed.test", doer).Index(context.Background()); err == nil {
			t.Error("expected error for malformed index")
		}
	})
}

func TestCheck(t *testing.T) {
	doer := &mockHTTPDoer{responses: map[string]*http.Response{
		"https://feed.test/index.json": jsonResponse(indexBody),
	}}
	c := NewWith("https://feed.test", doer)

	tests := []struct {
		current   string
		available bool
	}{
		{"1.0.0", true},
		{"1.2.0", false},
		{"2.0.0", false},
		{"", true},
	}
	for _, tt := range tests {
		t.Run("Current_"+tt.current, func(t *testing.T) {
			res, err := c.Check(context.Background(), tt.current)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if res.UpdateAvailable != tt.available {
				t.Errorf("UpdateAvailable = %v, want %v", res.UpdateAvailable, tt.available)
			}
			if res.LatestVersion != "1.2.0" {
				t.Errorf("LatestVersion = %s, want 1.2.0", res.LatestVersion)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, candidate string
		want               bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.0.0", false},
		{"1.1.0", "1.0.9", false},
		{"v1.0.0", "1.1.0", true},
		{"1.0.0", "v1.1.0", true},
		{"1.0.0", "2.0.0-rc.1", true},
		{"junk", "1.0.0", false},
		{"1.0.0", "junk", false},
	}
	for _, tt := range tests {
		t.Run(tt.current+"_vs_"+tt.candidate, func(t *testing.T) {
			if got := IsNewer(tt.current, tt.candidate); got != tt.want {
				t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestCheckCache(t *testing.T) {
	home := t.TempDir()

	if _, err := LoadCheckCache(home); err == nil {
		t.Error("expected error loading absent cache")
	}

	entry := &CheckEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   "1.2.0",
		UpdateAvailable: true,
	}
	if err := SaveCheckCache(home, entry); err != nil {
		t.Fatalf("SaveCheckCache: %v", err)
	}

	loaded, err := LoadCheckCache(home)
	if err != nil {
		t.Fatalf("LoadCheckCache: %v", err)
	}
	if loaded.LatestVersion != "1.2.0" || !loaded.UpdateAvailable {
		t.Errorf("loaded entry = %+v", loaded)
	}
	if !IsCheckCacheValid(loaded) {
		t.Error("fresh entry should be valid")
	}

	stale := &CheckEntry{CheckedAt: time.Now().Add(-time.Hour)}
	if IsCheckCacheValid(stale) {
		t.Error("hour-old entry should be stale")
	}
}
