// Package archive unpacks a verified package file (a tar.lz4 archive)
// into a staging directory. Staging stops at files on disk; installing
// the staged payload is outside the engine.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// ProgressFunc reports extraction progress.
// current: entries extracted so far
// total: total entries (-1 if unknown)
// name: current entry
type ProgressFunc func(current, total int64, name string)

// ExtractStaging extracts a tar.lz4 package into destDir, creating it
// if absent. Entries escaping destDir, and absolute symlink targets,
// are rejected.
func ExtractStaging(pkgPath, destDir string, progress ProgressFunc) error {
	f, err := os.Open(pkgPath)
	if err != nil {
		return fmt.Errorf("open package: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	tarReader := tar.NewReader(lz4.NewReader(f))

	var count int64
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		cleanName := filepath.Clean(header.Name)
		if strings.HasPrefix(cleanName, "..") || strings.HasPrefix(cleanName, "/") {
			return fmt.Errorf("invalid path in package: %s", header.Name)
		}
		targetPath := filepath.Join(destDir, cleanName)
		if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("path traversal detected: %s", header.Name)
		}

		count++
		if progress != nil {
			progress(count, -1, cleanName)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("create dir %s: %w", cleanName, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", cleanName, err)
			}
			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file %s: %w", cleanName, err)
			}
			written, copyErr := io.Copy(outFile, tarReader)
			if copyErr != nil {
				outFile.Close()
				return fmt.Errorf("write file %s: %w", cleanName, copyErr)
			}
			if header.Size > 0 && written != header.Size {
				outFile.Close()
				return fmt.Errorf("incomplete extraction of %s: wrote %d of %d bytes", cleanName, written, header.Size)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("close file %s: %w", cleanName, err)
			}

		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("absolute symlink not allowed: %s -> %s", cleanName, header.Linkname)
			}
			os.Remove(targetPath)
			if err := os.Symlink(header.Linkname, targetPath); err != nil {
				return fmt.Errorf("create symlink %s: %w", cleanName, err)
			}

		default:
			// Device nodes and the like never belong in a package.
			continue
		}
	}

	return nil
}
