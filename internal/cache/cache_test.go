package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, size int, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPaths(t *testing.T) {
	d := New("/tmp/cache")
	if got := d.PartialPath("1.2.0"); got != filepath.Join("/tmp/cache", "1.2.0.partial") {
		t.Errorf("PartialPath = %s", got)
	}
	if got := d.FinalPath("1.2.0"); got != filepath.Join("/tmp/cache", "1.2.0.pkg") {
		t.Errorf("FinalPath = %s", got)
	}
	if got := d.ManifestPath("1.2.0"); got != filepath.Join("/tmp/cache", "1.2.0.sums") {
		t.Errorf("ManifestPath = %s", got)
	}
}

func TestValidVersion(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{"1.2.0", true},
		{"v1.2.0", true},
		{"2.0.0-rc.1", true},
		{"", false},
		{"../../etc/passwd", false},
		{"a/b", false},
		{"not-a-version", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := ValidVersion(tt.version); got != tt.valid {
				t.Errorf("ValidVersion(%q) = %v, want %v", tt.version, got, tt.valid)
			}
		})
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	d := New(t.TempDir())
	base := time.Now().Add(-time.Hour)

	writeFile(t, d.FinalPath("1.0.0"), 48, base)
	writeFile(t, d.FinalPath("1.1.0"), 64, base.Add(10*time.Minute))
	writeFile(t, d.FinalPath("1.2.0"), 96, base.Add(20*time.Minute))
	// Not retention-eligible, must never appear in listings.
	writeFile(t, d.PartialPath("1.3.0"), 10, base.Add(30*time.Minute))
	writeFile(t, d.ManifestPath("1.2.0"), 5, base)

	files, err := d.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("List returned %d files, want 3", len(files))
	}
	want := []string{"1.2.0", "1.1.0", "1.0.0"}
	for i, v := range want {
		if files[i].Version != v {
			t.Errorf("files[%d].Version = %s, want %s", i, files[i].Version, v)
		}
	}
	if files[0].Size != 96 {
		t.Errorf("files[0].Size = %d, want 96", files[0].Size)
	}
}

func TestListTiesBreakByNameDescending(t *testing.T) {
	d := New(t.TempDir())
	mtime := time.Now().Truncate(time.Second)

	writeFile(t, d.FinalPath("1.0.0"), 1, mtime)
	writeFile(t, d.FinalPath("1.0.1"), 1, mtime)
	writeFile(t, d.FinalPath("1.0.2"), 1, mtime)

	files, err := d.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"1.0.2", "1.0.1", "1.0.0"}
	for i, v := range want {
		if files[i].Version != v {
			t.Errorf("files[%d].Version = %s, want %s", i, files[i].Version, v)
		}
	}
}

func TestListMissingDir(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "absent"))
	files, err := d.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("List returned %d files, want 0", len(files))
	}
}

func TestRemove(t *testing.T) {
	d := New(t.TempDir())
	writeFile(t, d.FinalPath("1.0.0"), 10, time.Time{})
	writeFile(t, d.ManifestPath("1.0.0"), 5, time.Time{})

	if err := d.Remove("1.0.0"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(d.FinalPath("1.0.0")); !os.IsNotExist(err) {
		t.Error("package file still present after Remove")
	}
	if _, err := os.Stat(d.ManifestPath("1.0.0")); !os.IsNotExist(err) {
		t.Error("manifest still present after Remove")
	}

	if err := d.Remove("1.0.0"); err == nil {
		t.Error("expected error removing absent package")
	}
}

func TestLockVersionSerializesSameVersion(t *testing.T) {
	d := New(t.TempDir())

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := d.LockVersion("1.0.0")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders of one version lock = %d, want 1", maxActive)
	}
}
