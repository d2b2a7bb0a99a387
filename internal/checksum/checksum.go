// Package checksum computes and verifies the per-chunk digest manifest
// that accompanies every downloaded package file.
package checksum

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultChunkSize is the granularity of the checksum manifest: one
// sha256 digest per 2 MiB of the byte stream. The final chunk of a
// file may be shorter.
const DefaultChunkSize int64 = 2 * 1024 * 1024

// Sum returns the lowercase-hex sha256 digest of a single chunk.
func Sum(chunk []byte) string {
	h := sha256.Sum256(chunk)
	return hex.EncodeToString(h[:])
}

// VerifyFile re-reads a completed package file chunk by chunk and
// checks every digest against the recorded manifest. The manifest must
// cover the whole file: a length mismatch is an error even when all
// present chunks match.
func VerifyFile(path string, chunks []string, chunkSize int64) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	idx := 0
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			if idx >= len(chunks) {
				return fmt.Errorf("file longer than manifest: %d chunks recorded", len(chunks))
			}
			if got := Sum(buf[:n]); got != chunks[idx] {
				return fmt.Errorf("chunk %d mismatch: expected %s, got %s", idx, chunks[idx], got)
			}
			idx++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
	}

	if idx != len(chunks) {
		return fmt.Errorf("file shorter than manifest: %d of %d chunks present", idx, len(chunks))
	}
	return nil
}

// WriteManifest writes a chunk manifest, one lowercase-hex digest per
// line, to path.
func WriteManifest(path string, chunks []string) error {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ReadManifest loads a chunk manifest written by WriteManifest.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) != 64 {
			return nil, fmt.Errorf("invalid digest %q in manifest", line)
		}
		if _, err := hex.DecodeString(line); err != nil {
			return nil, fmt.Errorf("invalid digest %q in manifest", line)
		}
		chunks = append(chunks, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return chunks, nil
}

// ParseChecksumLine extracts a sha256 digest from a server-published
// checksum file in the usual "<hash>  <filename>" format. Comment and
// blank lines are skipped.
func ParseChecksumLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 1 {
			hash := parts[0]
			if len(hash) == 64 {
				if _, err := hex.DecodeString(hash); err == nil {
					return hash, nil
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read checksum file: %w", err)
	}
	return "", fmt.Errorf("no valid sha256 digest found in checksum file")
}
