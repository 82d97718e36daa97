package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"imgres/asset"
	"imgres/names"
)

// Local keeps files in a directory served under layout prefix.
type Local struct {
	root   string
	layout Layout
	log    *zap.Logger
}

func NewLocal(root string, layout Layout, log *zap.Logger) (*Local, error) {
	if len(root) == 0 {
		return nil, errors.New("local storage requires root directory")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("unable to create storage directory: %w", err)
	}
	return &Local{root: root, layout: layout, log: log.Named("storage")}, nil
}

func (b *Local) Layout() Layout {
	return b.layout
}

// Root returns storage directory.
func (b *Local) Root() string {
	return b.root
}

func (b *Local) ListFiles(ctx context.Context, scope asset.Scope) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []File
	folder := b.layout.Folder(scope)

	entries, err := os.ReadDir(filepath.Join(b.root, folder))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to list scope folder: %w", err)
	}
	for _, de := range entries {
		if f, ok := b.file(de, de.Name(), b.layout.FileURL(scope, de.Name())); ok {
			f.Preferred = true
			files = append(files, f)
		}
	}

	entries, err = os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("unable to list storage: %w", err)
	}
	for _, de := range entries {
		name, found := strings.CutPrefix(de.Name(), folder+"_")
		if !found {
			continue
		}
		if f, ok := b.file(de, name, b.layout.FlatURL(scope, name)); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

func (b *Local) file(de os.DirEntry, name, url string) (File, bool) {
	if !de.Type().IsRegular() {
		return File{}, false
	}
	if _, ok := names.StripImageExtension(name); !ok {
		return File{}, false
	}
	f := File{Name: name, URL: url}
	if fi, err := de.Info(); err == nil {
		f.Size, f.Modified = fi.Size(), fi.ModTime()
	}
	return f, true
}

func (b *Local) Upload(ctx context.Context, scope asset.Scope, base, format string, data []byte) (Uploaded, error) {
	if err := ctx.Err(); err != nil {
		return Uploaded{}, err
	}
	filename := b.layout.Filename(base, format)
	dir := filepath.Join(b.root, b.layout.Folder(scope))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Uploaded{}, fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return Uploaded{}, fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, filename)); err != nil {
		_ = os.Remove(tmp)
		return Uploaded{}, fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	b.log.Debug("File stored", zap.String("scope", scope.Key()), zap.String("file", filename), zap.Int("size", len(data)))
	return Uploaded{URL: b.layout.FileURL(scope, filename), Filename: filename}, nil
}

// path maps locator to a file inside root.
func (b *Local) path(scope asset.Scope, locator string) (string, bool) {
	switch placement, file := b.layout.Classify(scope, locator); placement {
	case PlacementPreferred:
		return filepath.Join(b.root, b.layout.Folder(scope), file), true
	case PlacementFlat:
		return filepath.Join(b.root, b.layout.FlatKey(scope, file)), true
	}
	if len(locator) == 0 || strings.ContainsAny(locator, `/\`) || locator == "." || locator == ".." {
		return "", false
	}
	return filepath.Join(b.root, b.layout.Folder(scope), locator), true
}

func (b *Local) Delete(ctx context.Context, scope asset.Scope, locator string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fname, ok := b.path(scope, locator)
	if !ok {
		return false, nil
	}
	err := os.Remove(fname)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	b.log.Debug("File removed", zap.String("scope", scope.Key()), zap.String("file", fname))
	return true, nil
}

// Exists checks file presence for URLs under layout prefix.
func (b *Local) Exists(ctx context.Context, u string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rel, ok := b.layout.Relative(u)
	if !ok || strings.Contains(rel, "..") {
		return false, nil
	}
	fi, err := os.Stat(filepath.Join(b.root, filepath.FromSlash(rel)))
	if err != nil {
		return false, nil
	}
	return fi.Mode().IsRegular(), nil
}
