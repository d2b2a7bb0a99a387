package watch

import (
	"time"

	"github.com/fieldware/pkgcache/internal/cache"
	"github.com/fieldware/pkgcache/internal/gate"
	"github.com/fieldware/pkgcache/internal/netprobe"
)

// Message types for the Bubble Tea event loop

// tickMsg is sent periodically to trigger a state refresh
type tickMsg time.Time

// dataMsg carries a freshly collected snapshot
type dataMsg Snapshot

// forceRefreshMsg is sent when the user presses 'r'
type forceRefreshMsg struct{}

// Snapshot aggregates everything the watch screen shows: device
// probes, the network state, cache contents, and the resulting apply
// verdict.
type Snapshot struct {
	Idle     bool
	Battery  float64 // fraction in 0..1, negative when unknown
	Charging bool
	LowPower bool

	Network netprobe.State

	Packages   []cache.PackageFile
	TotalBytes int64
	CacheErr   error

	CanApply   bool
	Conditions gate.Conditions

	LastUpdate time.Time
}

// Options configures watch behavior
type Options struct {
	Conditions      gate.Conditions
	RefreshInterval time.Duration
	NoEmoji         bool
}
