package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"imgres/asset"
	"imgres/common"
	"imgres/storage"
)

// Mutation operation names.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpRename  = "rename"
	OpTags    = "tags"
	OpUpload  = "upload"
	OpDelete  = "delete"
	opPartial = "partial"
)

// ItemResult is outcome of one item of batch operation.
type ItemResult struct {
	Name string
	URL  string
	Err  error
}

// BatchResult reports per item outcome, batch never stops on item failure.
type BatchResult struct {
	Op        string
	Items     []ItemResult
	Succeeded int
	Failed    int
}

func (r *BatchResult) add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Err != nil {
		r.Failed++
	} else {
		r.Succeeded++
	}
}

// fail marks previously succeeded items as failed.
func (r *BatchResult) fail(err error) {
	for i := range r.Items {
		if r.Items[i].Err == nil {
			r.Items[i].Err = err
			r.Succeeded--
			r.Failed++
		}
	}
}

// Err combines item errors, nil when everything succeeded.
func (r *BatchResult) Err() error {
	var err error
	for _, it := range r.Items {
		if it.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s %q: %w", r.Op, it.Name, it.Err))
		}
	}
	return err
}

// update runs read-modify-write of scope registry. Cache is invalidated
// only after registry write completes.
func (l *Library) update(ctx context.Context, scope asset.Scope, op string, fn func([]asset.Entry) ([]asset.Entry, error)) (err error) {
	defer func() { l.metrics.Mutation(op, err) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.ReadAssets(ctx, scope)
	if err != nil {
		return fmt.Errorf("unable to read registry: %w", err)
	}
	entries, err = fn(entries)
	if err != nil {
		return err
	}
	if err := l.write(ctx, scope, entries); err != nil {
		return err
	}
	l.Invalidate(scope)
	return nil
}

func (l *Library) write(ctx context.Context, scope asset.Scope, entries []asset.Entry) error {
	if err := l.store.WriteAssets(ctx, scope, entries); err != nil {
		if errors.Is(err, asset.ErrTransientWrite) {
			return err
		}
		return fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return "", errEmptyName
	}
	return name, nil
}

// Add registers asset. Names must be unique in scope, including names
// differing only in case or producing the same storage file name.
func (l *Library) Add(ctx context.Context, scope asset.Scope, e asset.Entry) error {
	name, err := cleanName(e.Name)
	if err != nil {
		return err
	}
	e.Name = name
	e.Tags = asset.NormalizeTags(e.Tags)
	return l.update(ctx, scope, OpAdd, func(entries []asset.Entry) ([]asset.Entry, error) {
		if err := asset.CheckUnique(l.names, entries, name, -1); err != nil {
			return nil, err
		}
		return append(entries, e), nil
	})
}

// Remove drops asset from registry, file in storage stays.
func (l *Library) Remove(ctx context.Context, scope asset.Scope, name string) error {
	return l.update(ctx, scope, OpRemove, func(entries []asset.Entry) ([]asset.Entry, error) {
		i := asset.Find(entries, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", asset.ErrNotFound, name)
		}
		return slices.Delete(entries, i, i+1), nil
	})
}

// Rename changes display name keeping asset file. When registry does not
// know where file is, location discovered by sources is recorded.
func (l *Library) Rename(ctx context.Context, scope asset.Scope, from, to string) error {
	to, err := cleanName(to)
	if err != nil {
		return err
	}
	return l.update(ctx, scope, OpRename, func(entries []asset.Entry) ([]asset.Entry, error) {
		i := asset.Find(entries, from)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", asset.ErrNotFound, from)
		}
		if err := asset.CheckUnique(l.names, entries, to, i); err != nil {
			return nil, err
		}
		e := &entries[i]
		if e.Location(scope, l.backend.Layout()).IsZero() {
			if loc := l.currentLocation(scope, e.Name); loc.Kind() == common.LocationKindUrl {
				e.URL = loc.Value()
			}
		}
		l.log.Debug("Renaming asset", zap.Stringer("scope", scope), zap.String("from", e.Name), zap.String("to", to))
		e.Name = to
		return entries, nil
	})
}

// SetTags replaces asset tags.
func (l *Library) SetTags(ctx context.Context, scope asset.Scope, name string, tags []string) error {
	return l.update(ctx, scope, OpTags, func(entries []asset.Entry) ([]asset.Entry, error) {
		i := asset.Find(entries, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", asset.ErrNotFound, name)
		}
		entries[i].Tags = asset.NormalizeTags(tags)
		return entries, nil
	})
}

// Upload is one file of upload batch.
type Upload struct {
	Name string
	Data []byte
	Tags []string
}

// UploadBatch stores files and registers them. Items fail independently,
// returned error is set only when batch could not be processed at all.
func (l *Library) UploadBatch(ctx context.Context, scope asset.Scope, uploads []Upload) (*BatchResult, error) {
	res := &BatchResult{Op: OpUpload}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.ReadAssets(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}

	added := 0
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			res.add(ItemResult{Name: u.Name, Err: err})
			continue
		}
		e, err := l.upload(ctx, scope, entries, u)
		l.metrics.Mutation(OpUpload, err)
		res.add(ItemResult{Name: u.Name, URL: e.URL, Err: err})
		if err != nil {
			l.log.Warn("Upload failed", zap.Stringer("scope", scope), zap.String("name", u.Name), zap.Error(err))
			continue
		}
		entries = append(entries, e)
		added++
	}
	if added == 0 {
		return res, nil
	}

	if err := l.write(ctx, scope, entries); err != nil {
		// files are stored but unknown to registry, listing still finds them
		l.metrics.Mutation(opPartial, err)
		res.fail(err)
	}
	l.Invalidate(scope)
	l.log.Info("Upload finished", zap.Stringer("scope", scope), zap.Int("succeeded", res.Succeeded), zap.Int("failed", res.Failed))
	return res, nil
}

func (l *Library) upload(ctx context.Context, scope asset.Scope, entries []asset.Entry, u Upload) (asset.Entry, error) {
	name, err := cleanName(u.Name)
	if err != nil {
		return asset.Entry{}, err
	}
	if err := asset.CheckUnique(l.names, entries, name, -1); err != nil {
		return asset.Entry{}, err
	}
	prepared, err := storage.PrepareUpload(u.Data, storage.UploadOptions{
		MaxDimension: l.cfg.Storage.MaxDimension,
		RasterizeSVG: l.cfg.Storage.RasterizeSVG,
	})
	if err != nil {
		return asset.Entry{}, err
	}
	if prepared.Resized {
		l.log.Debug("Image downscaled", zap.String("name", name), zap.Int("width", prepared.Width), zap.Int("height", prepared.Height))
	}
	up, err := l.backend.Upload(ctx, scope, name, prepared.Format, prepared.Data)
	if err != nil {
		return asset.Entry{}, fmt.Errorf("unable to store file: %w", err)
	}
	return asset.Entry{
		Name:     name,
		Filename: up.Filename,
		URL:      up.URL,
		Tags:     asset.NormalizeTags(u.Tags),
	}, nil
}

// DeleteBatch removes assets from storage and registry. Missing files are
// not an error, asset is dropped from registry anyway. Registry only setups
// (no storage) just forget assets.
func (l *Library) DeleteBatch(ctx context.Context, scope asset.Scope, list []string) (*BatchResult, error) {
	res := &BatchResult{Op: OpDelete}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.ReadAssets(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}

	removed := 0
	for _, name := range list {
		if err := ctx.Err(); err != nil {
			res.add(ItemResult{Name: name, Err: err})
			continue
		}
		i := asset.Find(entries, name)
		if i < 0 {
			err := fmt.Errorf("%w: %q", asset.ErrNotFound, name)
			l.metrics.Mutation(OpDelete, err)
			res.add(ItemResult{Name: name, Err: err})
			continue
		}
		locator := l.locator(scope, entries[i])
		err := l.deleteFile(ctx, scope, locator)
		l.metrics.Mutation(OpDelete, err)
		res.add(ItemResult{Name: name, URL: locator, Err: err})
		if err != nil {
			l.log.Warn("Delete failed", zap.Stringer("scope", scope), zap.String("name", name), zap.Error(err))
			continue
		}
		entries = slices.Delete(entries, i, i+1)
		removed++
	}
	if removed == 0 {
		return res, nil
	}

	if err := l.write(ctx, scope, entries); err != nil {
		l.metrics.Mutation(opPartial, err)
		res.fail(err)
	}
	l.Invalidate(scope)
	l.log.Info("Delete finished", zap.Stringer("scope", scope), zap.Int("succeeded", res.Succeeded), zap.Int("failed", res.Failed))
	return res, nil
}

// locator picks what storage should delete for the entry.
func (l *Library) locator(scope asset.Scope, e asset.Entry) string {
	for _, s := range []string{e.Filename, e.URL, e.Path} {
		if s = strings.TrimSpace(s); len(s) > 0 {
			return s
		}
	}
	if loc := l.currentLocation(scope, e.Name); loc.Kind() == common.LocationKindUrl {
		return loc.Value()
	}
	return ""
}

func (l *Library) deleteFile(ctx context.Context, scope asset.Scope, locator string) error {
	if len(locator) == 0 {
		// inline or never stored
		return nil
	}
	ok, err := l.backend.Delete(ctx, scope, locator)
	switch {
	case errors.Is(err, storage.ErrNotSupported):
		return nil
	case err != nil:
		return err
	case !ok:
		l.log.Debug("Nothing to delete", zap.Stringer("scope", scope), zap.String("locator", locator))
	}
	return nil
}
