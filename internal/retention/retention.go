// Package retention keeps the package cache bounded. A pass applies up
// to three constraints in a fixed order: version-count cap, total-size
// cap, free-space floor. Each stage evicts from the oldest end of the
// recency-sorted completed-file list and operates on the survivors of
// the previous stage. Partial files never count and are never deleted.
package retention

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/fieldware/pkgcache/internal/cache"
)

// Policy is the set of caps governing which cached package files
// survive an eviction pass. Zero values disable a constraint.
type Policy struct {
	MaxVersions   int    // keep at most this many completed versions (0 = unlimited)
	MaxTotalBytes int64  // cap on the sum of completed file sizes (0 = unlimited)
	MinFreeBytes  uint64 // required free disk space on the cache volume (0 = no floor)
}

// Result reports what an enforcement pass deleted and kept.
type Result struct {
	Deleted []cache.PackageFile
	Kept    int
}

// DiskFreeFunc reports available bytes on the volume holding path.
type DiskFreeFunc func(path string) (uint64, error)

// Enforcer applies retention policies to a cache directory.
type Enforcer struct {
	dir      *cache.Dir
	diskFree DiskFreeFunc
}

// New returns an enforcer that queries real disk capacity.
func New(dir *cache.Dir) *Enforcer {
	return NewWith(dir, func(path string) (uint64, error) {
		usage, err := disk.Usage(path)
		if err != nil {
			return 0, err
		}
		return usage.Free, nil
	})
}

// NewWith returns an enforcer with an injected free-space query (for
// testing and non-default volumes).
func NewWith(dir *cache.Dir, free DiskFreeFunc) *Enforcer {
	return &Enforcer{dir: dir, diskFree: free}
}

// Enforce runs one eviction pass. A deletion failure aborts the pass
// with an IOError; earlier deletions are not rolled back, since a
// partial retention pass still moves the cache toward policy.
func (e *Enforcer) Enforce(policy Policy) (*Result, error) {
	files, err := e.dir.List()
	if err != nil {
		return nil, err
	}

	result := &Result{}

	evictOldest := func() error {
		victim := files[len(files)-1]
		if err := e.dir.Remove(victim.Version); err != nil {
			return err
		}
		files = files[:len(files)-1]
		result.Deleted = append(result.Deleted, victim)
		return nil
	}

	// Stage 1: version-count cap. Cheapest and most predictable, so it
	// runs first.
	if policy.MaxVersions > 0 {
		for len(files) > policy.MaxVersions {
			if err := evictOldest(); err != nil {
				return result, err
			}
		}
	}

	// Stage 2: total-size cap over the survivors.
	if policy.MaxTotalBytes > 0 {
		var total int64
		for _, f := range files {
			total += f.Size
		}
		for total > policy.MaxTotalBytes && len(files) > 0 {
			total -= files[len(files)-1].Size
			if err := evictOldest(); err != nil {
				return result, err
			}
		}
	}

	// Stage 3: free-space floor. The volume is queried once; each
	// eviction credits its size back to the estimate instead of
	// issuing another syscall.
	if policy.MinFreeBytes > 0 {
		free, err := e.diskFree(e.dir.Root())
		if err != nil {
			return result, cache.NewIOError("query free space", e.dir.Root(), err)
		}
		for free < policy.MinFreeBytes && len(files) > 0 {
			reclaimed := uint64(files[len(files)-1].Size)
			if err := evictOldest(); err != nil {
				return result, err
			}
			free += reclaimed
		}
	}

	result.Kept = len(files)
	return result, nil
}
