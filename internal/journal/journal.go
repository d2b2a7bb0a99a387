// Package journal records engine events (downloads, evictions, apply
// checks) in an append-only log file, and can follow that file as new
// lines land.
package journal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
)

// Journal appends timestamped event lines to a single log file.
// Writes are serialized so concurrent engine operations never
// interleave within a line.
type Journal struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a journal writing to path. The file is created on first
// record.
func New(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

// Path returns the log file location.
func (j *Journal) Path() string { return j.path }

// Record appends one event line: RFC3339 timestamp, event name, then
// key=value fields in sorted key order for deterministic output.
func (j *Journal) Record(event string, fields map[string]string) error {
	var b strings.Builder
	b.WriteString(j.now().UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(event)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fields[k])
	}
	b.WriteByte('\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Follow streams lines from path as they are appended, starting from
// the current end of file, until ctx is cancelled. The returned
// channel closes on exit.
func Follow(ctx context.Context, path string) (<-chan string, error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail journal: %w", err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer func() {
			_ = t.Stop()
			t.Cleanup()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				if line.Err != nil {
					return
				}
				select {
				case out <- line.Text:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
