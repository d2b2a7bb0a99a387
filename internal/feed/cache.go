package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	checkFileName = ".update-check"
	checkDuration = 10 * time.Minute
)

// CheckEntry stores the last feed check result so short-lived commands
// do not hammer the feed.
type CheckEntry struct {
	CheckedAt       time.Time `json:"checked_at"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
}

// CheckCachePath returns the path of the check-cache file under
// homeDir.
func CheckCachePath(homeDir string) string {
	return filepath.Join(homeDir, checkFileName)
}

// LoadCheckCache loads the cached feed check result.
func LoadCheckCache(homeDir string) (*CheckEntry, error) {
	data, err := os.ReadFile(CheckCachePath(homeDir))
	if err != nil {
		return nil, err
	}
	var entry CheckEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCheckCache saves a feed check result.
func SaveCheckCache(homeDir string, entry *CheckEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(CheckCachePath(homeDir), data, 0o644)
}

// IsCheckCacheValid returns true if the entry is fresh (< 10m old).
func IsCheckCacheValid(entry *CheckEntry) bool {
	return time.Since(entry.CheckedAt) < checkDuration
}
