// Package download implements the resumable package downloader: a
// byte-range HTTP fetch streamed into a partial file on disk, with a
// sha256 digest recorded per chunk and progress reported as chunks are
// flushed. A dropped connection costs only the unflushed buffer.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fieldware/pkgcache/internal/cache"
	"github.com/fieldware/pkgcache/internal/checksum"
)

// Progress is an observational snapshot emitted repeatedly during a
// download, once per flushed chunk.
type Progress struct {
	BytesReceived      int64
	TotalBytesExpected int64   // -1 when the total length is unknown
	FractionComplete   float64 // -1 when the total length is unknown
	LastChunkChecksum  string
}

// ProgressFunc receives progress updates in strictly increasing
// BytesReceived order.
type ProgressFunc func(Progress)

// Result is returned once, on success. ChecksumChunks is the ordered
// digest manifest covering the entire byte stream.
type Result struct {
	Path           string
	TotalBytes     int64
	ChecksumChunks []string
}

// Options configures a single download.
type Options struct {
	Version            string
	SourceURL          string
	ExpectedTotalBytes int64 // caller hint, used when the server reports no length; 0 = unknown
	ChunkSize          int64 // 0 = checksum.DefaultChunkSize
	Progress           ProgressFunc
}

// HTTPDoer is the HTTP seam; it allows mocking transport in tests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Service downloads versioned package files into the cache.
type Service interface {
	// Download fetches opts.SourceURL into the cache, resuming any
	// existing partial file for opts.Version, and atomically promotes
	// the partial to a completed package file on success.
	Download(ctx context.Context, opts Options) (*Result, error)
}

type svc struct {
	http HTTPDoer
	dir  *cache.Dir
}

// New creates a downloader with a default HTTP client tuned for large
// transfers: no overall timeout, but a bounded response-header wait.
func New(dir *cache.Dir) Service {
	return &svc{
		dir: dir,
		http: &http.Client{
			Timeout: 0,
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// NewWith creates a downloader with a custom HTTP client (for testing).
func NewWith(dir *cache.Dir, h HTTPDoer) Service {
	if h == nil {
		return New(dir)
	}
	return &svc{dir: dir, http: h}
}

func (s *svc) Download(ctx context.Context, opts Options) (*Result, error) {
	if !cache.ValidVersion(opts.Version) {
		return nil, fmt.Errorf("invalid version %q", opts.Version)
	}
	if opts.SourceURL == "" {
		return nil, fmt.Errorf("source URL required")
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = checksum.DefaultChunkSize
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(Progress) {}
	}

	if err := s.dir.Ensure(); err != nil {
		return nil, err
	}

	// Concurrent downloads of the same version would interleave writes
	// into one partial file; hold the version lock for the whole
	// transfer.
	unlock := s.dir.LockVersion(opts.Version)
	defer unlock()

	partial := s.dir.PartialPath(opts.Version)

	existingSize, chunks, err := resumeState(partial, chunkSize)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.SourceURL, nil)
	if err != nil {
		return nil, &TransportError{URL: opts.SourceURL, Err: err}
	}
	if existingSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: opts.SourceURL, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if existingSize > 0 {
			// Server ignored the range request; the stream restarts
			// from byte zero, so the partial must too.
			if err := os.Truncate(partial, 0); err != nil {
				return nil, cache.NewIOError("truncate partial", partial, err)
			}
			existingSize = 0
			chunks = nil
		}
	case http.StatusPartialContent:
		// Resuming as requested.
	default:
		return nil, &TransportError{URL: opts.SourceURL, Status: resp.Status}
	}

	expected := expectedLength(resp, existingSize, opts.ExpectedTotalBytes)

	f, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, cache.NewIOError("open partial", partial, err)
	}

	received, chunks, err := s.consume(resp.Body, f, progress, consumeState{
		received:  existingSize,
		expected:  expected,
		chunks:    chunks,
		chunkSize: chunkSize,
	})
	if err != nil {
		f.Close()
		var ioErr *cache.IOError
		if errors.As(err, &ioErr) {
			return nil, err
		}
		return nil, &TransportError{URL: opts.SourceURL, Err: err}
	}
	if err := f.Close(); err != nil {
		return nil, cache.NewIOError("close partial", partial, err)
	}

	if received == 0 {
		return nil, &IncompleteDataError{URL: opts.SourceURL, Received: 0, Expected: -1}
	}
	if expected > 0 && received < expected {
		return nil, &IncompleteDataError{URL: opts.SourceURL, Received: received, Expected: expected}
	}

	// Atomic promotion: rename replaces any prior completed file for
	// this version in one step, never leaving a half-written final.
	final := s.dir.FinalPath(opts.Version)
	if err := os.Rename(partial, final); err != nil {
		return nil, cache.NewIOError("finalize package", final, err)
	}

	// The manifest file is advisory (Result already carries the
	// chunks); failure to persist it does not fail the download.
	_ = checksum.WriteManifest(s.dir.ManifestPath(opts.Version), chunks)

	return &Result{Path: final, TotalBytes: received, ChecksumChunks: chunks}, nil
}

type consumeState struct {
	received  int64
	expected  int64
	chunks    []string
	chunkSize int64
}

// consume streams body into f, flushing and checksumming one chunk at
// a time. It returns the total bytes on disk (resumed plus new) and
// the full chunk manifest.
func (s *svc) consume(body io.Reader, f *os.File, progress ProgressFunc, st consumeState) (int64, []string, error) {
	emit := func(last string) {
		p := Progress{
			BytesReceived:      st.received,
			TotalBytesExpected: st.expected,
			FractionComplete:   -1,
			LastChunkChecksum:  last,
		}
		if st.expected > 0 {
			p.FractionComplete = float64(st.received) / float64(st.expected)
			if p.FractionComplete > 1 {
				p.FractionComplete = 1
			}
		}
		progress(p)
	}

	buf := make([]byte, 32*1024)
	pending := make([]byte, 0, st.chunkSize)

	flush := func(chunk []byte) error {
		if _, err := f.Write(chunk); err != nil {
			return cache.NewIOError("write partial", f.Name(), err)
		}
		sum := checksum.Sum(chunk)
		st.chunks = append(st.chunks, sum)
		st.received += int64(len(chunk))
		emit(sum)
		return nil
	}

	for {
		n, err := body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for int64(len(pending)) >= st.chunkSize {
				if err := flush(pending[:st.chunkSize]); err != nil {
					return st.received, st.chunks, err
				}
				pending = pending[st.chunkSize:]
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return st.received, st.chunks, err
		}
	}

	if len(pending) > 0 {
		if err := flush(pending); err != nil {
			return st.received, st.chunks, err
		}
	}
	return st.received, st.chunks, nil
}

// resumeState inspects an existing partial file and rebuilds the chunk
// manifest for its contents. Partial files only ever contain whole
// chunks (flushes happen a chunk at a time), so a trailing fragment
// means a foreign or damaged partial and is truncated away.
func resumeState(partial string, chunkSize int64) (int64, []string, error) {
	info, err := os.Stat(partial)
	if os.IsNotExist(err) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, cache.NewIOError("stat partial", partial, err)
	}

	size := info.Size()
	if rem := size % chunkSize; rem != 0 {
		size -= rem
		if err := os.Truncate(partial, size); err != nil {
			return 0, nil, cache.NewIOError("truncate partial", partial, err)
		}
	}
	if size == 0 {
		return 0, nil, nil
	}

	f, err := os.Open(partial)
	if err != nil {
		return 0, nil, cache.NewIOError("open partial", partial, err)
	}
	defer f.Close()

	var chunks []string
	buf := make([]byte, chunkSize)
	for off := int64(0); off < size; off += chunkSize {
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return 0, nil, cache.NewIOError("read partial", partial, err)
		}
		chunks = append(chunks, checksum.Sum(buf[:n]))
	}
	return size, chunks, nil
}

// expectedLength derives the total expected size of the package file.
// Preference order: Content-Range total, Content-Length (plus the
// resume offset on a 206), caller-supplied hint, unknown (-1).
func expectedLength(resp *http.Response, existingSize, hint int64) int64 {
	if total, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
		return total
	}
	if resp.ContentLength >= 0 {
		if resp.StatusCode == http.StatusPartialContent {
			return existingSize + resp.ContentLength
		}
		return resp.ContentLength
	}
	if hint > 0 {
		return hint
	}
	return -1
}

// parseContentRangeTotal extracts the total length from a
// "bytes X-Y/TOTAL" header. A "*" total means the server does not
// know the length either.
func parseContentRangeTotal(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "bytes") {
		return 0, false
	}
	idx := strings.LastIndex(v, "/")
	if idx < 0 {
		return 0, false
	}
	totalStr := strings.TrimSpace(v[idx+1:])
	if totalStr == "*" || totalStr == "" {
		return 0, false
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}
