package retention

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fieldware/pkgcache/internal/cache"
)

// seed writes completed package files oldest-first, a minute apart.
func seed(t *testing.T, d *cache.Dir, sizes map[string]int) {
	t.Helper()
	if err := d.Ensure(); err != nil {
		t.Fatal(err)
	}
	// Deterministic ordering: sort versions and space their mtimes.
	versions := make([]string, 0, len(sizes))
	for v := range sizes {
		versions = append(versions, v)
	}
	// Simple insertion sort keeps the helper dependency-free.
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && versions[j] < versions[j-1]; j-- {
			versions[j], versions[j-1] = versions[j-1], versions[j]
		}
	}
	base := time.Now().Add(-time.Hour)
	for i, v := range versions {
		path := d.FinalPath(v)
		if err := os.WriteFile(path, make([]byte, sizes[v]), 0o644); err != nil {
			t.Fatal(err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
}

func remaining(t *testing.T, d *cache.Dir) []string {
	t.Helper()
	files, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Version
	}
	return out
}

func staticFree(n uint64) DiskFreeFunc {
	return func(string) (uint64, error) { return n, nil }
}

func TestVersionCountCap(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 10, "1.1.0": 10, "1.2.0": 10, "1.3.0": 10, "1.4.0": 10})

	res, err := NewWith(d, staticFree(1<<40)).Enforce(Policy{MaxVersions: 2})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if res.Kept != 2 || len(res.Deleted) != 3 {
		t.Errorf("Kept/Deleted = %d/%d, want 2/3", res.Kept, len(res.Deleted))
	}
	got := remaining(t, d)
	want := []string{"1.4.0", "1.3.0"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("remaining = %v, want %v", got, want)
	}
}

func TestSizeCapEvictsOldestFirst(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 50, "1.1.0": 50, "1.2.0": 50})

	_, err := NewWith(d, staticFree(1<<40)).Enforce(Policy{MaxTotalBytes: 110})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	got := remaining(t, d)
	if len(got) != 2 || got[0] != "1.2.0" || got[1] != "1.1.0" {
		t.Errorf("remaining = %v, want [1.2.0 1.1.0]", got)
	}
}

// The worked example: {maxVersions:2, maxTotalBytes:140} over
// v1(48B, oldest), v2(64B), v3(96B, newest). The count cap deletes v1;
// the survivors sum to 160 > 140, so v2 goes too; only v3 remains.
func TestLayeredConstraints(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 48, "2.0.0": 64, "3.0.0": 96})

	res, err := NewWith(d, staticFree(1<<40)).Enforce(Policy{MaxVersions: 2, MaxTotalBytes: 140})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	got := remaining(t, d)
	if len(got) != 1 || got[0] != "3.0.0" {
		t.Errorf("remaining = %v, want [3.0.0]", got)
	}
	if len(res.Deleted) != 2 {
		t.Errorf("Deleted = %d files, want 2", len(res.Deleted))
	}
	if res.Deleted[0].Version != "1.0.0" || res.Deleted[1].Version != "2.0.0" {
		t.Errorf("deletion order = %v, want [1.0.0 2.0.0]", res.Deleted)
	}
}

func TestFreeSpaceFloor(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 100, "1.1.0": 100, "1.2.0": 100})

	// 50 bytes free, floor of 240: two evictions credit 200 bytes back.
	res, err := NewWith(d, staticFree(50)).Enforce(Policy{MinFreeBytes: 240})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	got := remaining(t, d)
	if len(got) != 1 || got[0] != "1.2.0" {
		t.Errorf("remaining = %v, want [1.2.0]", got)
	}
	if res.Kept != 1 {
		t.Errorf("Kept = %d, want 1", res.Kept)
	}
}

func TestFreeSpaceFloorQueriesDiskOnce(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 100, "1.1.0": 100, "1.2.0": 100})

	calls := 0
	free := func(string) (uint64, error) {
		calls++
		return 0, nil
	}
	if _, err := NewWith(d, free).Enforce(Policy{MinFreeBytes: 150}); err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if calls != 1 {
		t.Errorf("disk queried %d times, want 1", calls)
	}
}

func TestFreeSpaceQueryFailure(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 100})

	fail := func(string) (uint64, error) { return 0, errors.New("statfs failed") }
	_, err := NewWith(d, fail).Enforce(Policy{MinFreeBytes: 1})
	var ioErr *cache.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestPartialFilesAreInvisible(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 100, "1.1.0": 100})
	// An in-progress download must survive any retention pass.
	if err := os.WriteFile(d.PartialPath("2.0.0"), make([]byte, 500), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewWith(d, staticFree(0)).Enforce(Policy{MaxVersions: 1, MaxTotalBytes: 1, MinFreeBytes: 1 << 30})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if _, err := os.Stat(d.PartialPath("2.0.0")); err != nil {
		t.Error("partial file was deleted by retention")
	}
	if got := remaining(t, d); len(got) != 0 {
		t.Errorf("remaining = %v, want none (caps force all completed files out)", got)
	}
}

func TestUnsetPolicyIsNoOp(t *testing.T) {
	d := cache.New(t.TempDir())
	seed(t, d, map[string]int{"1.0.0": 100, "1.1.0": 100})

	res, err := NewWith(d, staticFree(0)).Enforce(Policy{})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if len(res.Deleted) != 0 || res.Kept != 2 {
		t.Errorf("Deleted/Kept = %d/%d, want 0/2", len(res.Deleted), res.Kept)
	}
}
