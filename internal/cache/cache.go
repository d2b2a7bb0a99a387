// Package cache manages the on-disk package cache directory. A package
// file is in exactly one of two states: <version>.partial (incomplete,
// resumable) or <version>.pkg (complete, ready to use).
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// FinalExt marks a completed, verified-length package file.
	FinalExt = ".pkg"
	// PartialExt marks an in-progress download, resumable via byte ranges.
	PartialExt = ".partial"
	// ManifestExt marks the chunk-checksum manifest saved next to a
	// completed package file.
	ManifestExt = ".sums"
)

// PackageFile describes a completed package file discovered in the
// cache directory.
type PackageFile struct {
	Version string
	Path    string
	Size    int64
	ModTime time.Time
}

// Dir is a filesystem-backed package cache rooted at a single
// directory. It also owns the per-version locks that serialize
// concurrent downloads of the same version.
type Dir struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a cache rooted at root. The directory is created lazily
// by Ensure.
func New(root string) *Dir {
	return &Dir{root: root, locks: make(map[string]*sync.Mutex)}
}

// Root returns the cache directory path.
func (d *Dir) Root() string { return d.root }

// Ensure creates the cache directory if absent.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return NewIOError("create cache dir", d.root, err)
	}
	return nil
}

// PartialPath returns the on-disk path of the resumable partial file
// for version.
func (d *Dir) PartialPath(version string) string {
	return filepath.Join(d.root, version+PartialExt)
}

// FinalPath returns the on-disk path of the completed package file for
// version.
func (d *Dir) FinalPath(version string) string {
	return filepath.Join(d.root, version+FinalExt)
}

// ManifestPath returns the path of the chunk manifest for version.
func (d *Dir) ManifestPath(version string) string {
	return filepath.Join(d.root, version+ManifestExt)
}

// ValidVersion reports whether v is usable as a package version: a
// semantic version (with or without the leading "v") containing no
// path separators.
func ValidVersion(v string) bool {
	if v == "" || strings.ContainsAny(v, `/\`) || strings.Contains(v, "..") {
		return false
	}
	if semver.IsValid(v) {
		return true
	}
	return semver.IsValid("v" + v)
}

// List enumerates completed package files, newest first. Recency is
// modification time; ties break by filename, descending, so the order
// is deterministic. Partial files and manifests are never listed.
func (d *Dir) List() ([]PackageFile, error) {
	entries, err := os.ReadDir(d.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, NewIOError("read cache dir", d.root, err)
	}

	var files []PackageFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, FinalExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, NewIOError("stat package file", filepath.Join(d.root, name), err)
		}
		files = append(files, PackageFile{
			Version: strings.TrimSuffix(name, FinalExt),
			Path:    filepath.Join(d.root, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Version > files[j].Version
	})
	return files, nil
}

// LockVersion takes the per-version mutex and returns the unlock
// function. Two concurrent downloads of the same version serialize
// here instead of corrupting the shared partial file; distinct
// versions proceed in parallel.
func (d *Dir) LockVersion(version string) func() {
	d.mu.Lock()
	l, ok := d.locks[version]
	if !ok {
		l = &sync.Mutex{}
		d.locks[version] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Remove deletes the completed package file for version, plus its
// manifest if one exists.
func (d *Dir) Remove(version string) error {
	final := d.FinalPath(version)
	if err := os.Remove(final); err != nil {
		return NewIOError("delete package file", final, err)
	}
	// Manifest is advisory; a missing one is not an error.
	if err := os.Remove(d.ManifestPath(version)); err != nil && !os.IsNotExist(err) {
		return NewIOError("delete manifest", d.ManifestPath(version), err)
	}
	return nil
}

// IOError is a local filesystem failure: create, open, rename, delete,
// directory scan, or free-space query. It carries the operation and
// path so callers can log and retry with context.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err as an IOError for op on path.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}
