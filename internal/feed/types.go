package feed

import "time"

// Release describes one published package version in the feed index.
type Release struct {
	Version     string    `json:"version"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	PublishedAt time.Time `json:"published_at"`
}

// Index is the document served at <base>/index.json.
type Index struct {
	Releases []Release `json:"releases"`
}

// CheckResult holds the outcome of a feed check against the local
// cache contents.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	Release         *Release
}
