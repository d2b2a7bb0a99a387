// Package feed discovers published package versions: a JSON index over
// HTTP for polling, and a websocket stream for push notification of
// new releases.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const httpTimeout = 30 * time.Second

// HTTPDoer interface for HTTP requests (allows mocking in tests).
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client fetches the release index from a feed base URL.
type Client struct {
	base string
	http HTTPDoer
}

// New creates a feed client with a default HTTP client.
func New(base string) *Client {
	return NewWith(base, &http.Client{Timeout: httpTimeout})
}

// NewWith creates a feed client with a custom HTTP client.
func NewWith(base string, h HTTPDoer) *Client {
	if h == nil {
		return New(base)
	}
	return &Client{base: strings.TrimRight(base, "/"), http: h}
}

// Index fetches and parses the full release index.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/index.json", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no release index at %s", c.base)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed error: %s", resp.Status)
	}

	var idx Index
	if err := json.NewDecoder(resp.Body).Decode(&idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return &idx, nil
}

// Latest returns the highest-versioned release in the index.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	idx, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}
	var latest *Release
	for i := range idx.Releases {
		r := &idx.Releases[i]
		if !semver.IsValid(canonical(r.Version)) {
			continue
		}
		if latest == nil || semver.Compare(canonical(r.Version), canonical(latest.Version)) > 0 {
			latest = r
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("release index is empty")
	}
	return latest, nil
}

// Check fetches the latest release and compares it against the version
// currently in the cache. An empty current version always reads as
// update-available.
func (c *Client) Check(ctx context.Context, currentVersion string) (*CheckResult, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		CurrentVersion:  currentVersion,
		LatestVersion:   latest.Version,
		UpdateAvailable: currentVersion == "" || IsNewer(currentVersion, latest.Version),
		Release:         latest,
	}, nil
}

// IsNewer reports whether candidate is a strictly newer semantic
// version than current. Invalid versions are never newer.
func IsNewer(current, candidate string) bool {
	cur, cand := canonical(current), canonical(candidate)
	if !semver.IsValid(cur) || !semver.IsValid(cand) {
		return false
	}
	return semver.Compare(cand, cur) > 0
}

func canonical(v string) string {
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
