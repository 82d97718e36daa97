// Package archive reads image files packed into zip archives for bulk
// uploads.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"imgres/names"
)

// ImageFunc is called for every image in archive. Name is the asset name
// derived from entry file name, format is normalized image format.
type ImageFunc func(name, format string, data []byte) error

// Images walks image entries of archive under prefix in archive order.
// Entries larger than limit bytes (when limit > 0) are rejected, entries
// with path traversal components or absolute paths fail the walk.
func Images(archive, prefix string, limit int64, fn ImageFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("unable to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		file := path.Base(name)
		base, ok := names.StripImageExtension(file)
		if !ok || strings.HasPrefix(file, ".") {
			continue
		}
		_, format := names.SplitNameAndFormat(file)
		if limit > 0 && f.UncompressedSize64 > uint64(limit) {
			return fmt.Errorf("zip entry %q: too large (%d bytes)", name, f.UncompressedSize64)
		}
		data, err := read(f, limit)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		if err := fn(base, format, data); err != nil {
			return err
		}
	}
	return nil
}

func read(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		// header sizes are not to be trusted
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("too large (over %d bytes)", limit)
	}
	return data, nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
