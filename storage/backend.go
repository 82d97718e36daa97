// Package storage talks to places where image files live.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imgres/asset"
	"imgres/common"
	"imgres/config"
	"imgres/names"
)

var (
	// ErrListingUnavailable means backend cannot list files at all, which
	// is different from listing nothing.
	ErrListingUnavailable = errors.New("file listing unavailable")
	// ErrAuthRejected is returned when mutating call was refused pending
	// fresh credentials.
	ErrAuthRejected = errors.New("credentials rejected")
	// ErrNotSupported is returned for operations backend does not implement.
	ErrNotSupported = errors.New("operation not supported")
)

// File is a single listed image file.
type File struct {
	Name      string
	URL       string
	Size      int64
	Modified  time.Time
	Preferred bool
}

// Uploaded describes stored file.
type Uploaded struct {
	URL      string
	Filename string
}

// Backend is a storage for scope image files. All backends name files
// following Layout.Filename, which mirrors names.CanonicalKey.
type Backend interface {
	Layout() Layout
	ListFiles(ctx context.Context, scope asset.Scope) ([]File, error)
	Upload(ctx context.Context, scope asset.Scope, base, format string, data []byte) (Uploaded, error)
	// Delete removes file by URL or file name, returns false if there was
	// nothing to delete.
	Delete(ctx context.Context, scope asset.Scope, locator string) (bool, error)
}

// Exister is implemented by backends able to cheaply check existence of a
// file without transferring it.
type Exister interface {
	Exists(ctx context.Context, url string) (bool, error)
}

// Open creates backend described by configuration.
func Open(ctx context.Context, cfg *config.StorageConfig, listing *config.ListingConfig, n names.Normalizer, log *zap.Logger) (Backend, error) {
	layout := Layout{Prefix: cfg.URLPrefix, Names: n}
	switch cfg.Kind {
	case common.StorageKindNone:
		return None{layout: layout}, nil
	case common.StorageKindLocal:
		return NewLocal(cfg.LocalRoot, layout, log)
	case common.StorageKindHttp:
		creds := NewCredentials(cfg.HTTP.Token.Value(), cfg.HTTP.TokenURL, cfg.HTTP.Timeout)
		h, err := NewHTTP(cfg.HTTP.Endpoint, layout, creds, listing.Dialects, HTTPOptions{
			Timeout:        cfg.HTTP.Timeout,
			ListingTimeout: listing.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return WithAuthRetry(h, creds, log), nil
	case common.StorageKindGcs:
		return NewGCS(ctx, &cfg.GCS, n, log)
	}
	return nil, fmt.Errorf("unsupported storage kind %s", cfg.Kind)
}

// None is used when there is no storage, only registry.
type None struct {
	layout Layout
}

func (b None) Layout() Layout {
	return b.layout
}

func (None) ListFiles(context.Context, asset.Scope) ([]File, error) {
	return nil, ErrListingUnavailable
}

func (None) Upload(context.Context, asset.Scope, string, string, []byte) (Uploaded, error) {
	return Uploaded{}, ErrNotSupported
}

func (None) Delete(context.Context, asset.Scope, string) (bool, error) {
	return false, ErrNotSupported
}
