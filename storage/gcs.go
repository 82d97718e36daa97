package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"imgres/asset"
	"imgres/config"
	"imgres/names"
)

// GCS keeps files in Google Cloud Storage bucket. Object keys are layout
// keys under configured prefix, files are served from public URL.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
	layout Layout
	log    *zap.Logger
}

func NewGCS(ctx context.Context, cfg *config.GCSStorageConfig, n names.Normalizer, log *zap.Logger, opts ...option.ClientOption) (*GCS, error) {
	if len(cfg.Bucket) == 0 {
		return nil, errors.New("gcs storage requires bucket name")
	}
	if len(cfg.CredentialsFile) > 0 {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create storage client: %w", err)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	public := strings.TrimRight(cfg.PublicURL, "/")
	if len(public) == 0 {
		public = "https://storage.googleapis.com/" + cfg.Bucket
	}
	if len(prefix) > 0 {
		public += "/" + prefix
		prefix += "/"
	}
	return &GCS{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		layout: Layout{Prefix: public, Names: n},
		log:    log.Named("storage"),
	}, nil
}

func (b *GCS) Layout() Layout {
	return b.layout
}

func (b *GCS) Close() error {
	return b.client.Close()
}

func (b *GCS) list(ctx context.Context, q *gcs.Query, preferred bool, url func(name string) string) ([]File, error) {
	var files []File
	it := b.client.Bucket(b.bucket).Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		// synthetic directory entries
		if len(attrs.Name) == 0 {
			continue
		}
		name := strings.TrimPrefix(attrs.Name, q.Prefix)
		if _, ok := names.StripImageExtension(name); !ok || strings.Contains(name, "/") {
			continue
		}
		files = append(files, File{Name: name, URL: url(name), Size: attrs.Size, Modified: attrs.Updated, Preferred: preferred})
	}
	return files, nil
}

func (b *GCS) ListFiles(ctx context.Context, scope asset.Scope) ([]File, error) {
	folder := b.layout.Folder(scope)

	files, err := b.list(ctx, &gcs.Query{Prefix: b.prefix + folder + "/", Delimiter: "/"}, true,
		func(name string) string { return b.layout.FileURL(scope, name) })
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingUnavailable, err)
	}
	flat, err := b.list(ctx, &gcs.Query{Prefix: b.prefix + folder + "_", Delimiter: "/"}, false,
		func(name string) string { return b.layout.FlatURL(scope, name) })
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingUnavailable, err)
	}
	return append(files, flat...), nil
}

func (b *GCS) Upload(ctx context.Context, scope asset.Scope, base, format string, data []byte) (Uploaded, error) {
	filename := b.layout.Filename(base, format)
	key := b.prefix + b.layout.Key(scope, filename)

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = names.MimeType(format)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return Uploaded{}, fmt.Errorf("%w: unable to write object %q: %w", asset.ErrTransientWrite, key, err)
	}
	if err := w.Close(); err != nil {
		return Uploaded{}, fmt.Errorf("%w: unable to store object %q: %w", asset.ErrTransientWrite, key, err)
	}
	b.log.Debug("Object stored", zap.String("bucket", b.bucket), zap.String("key", key))
	return Uploaded{URL: b.layout.FileURL(scope, filename), Filename: filename}, nil
}

func (b *GCS) key(scope asset.Scope, locator string) (string, bool) {
	switch placement, file := b.layout.Classify(scope, locator); placement {
	case PlacementPreferred:
		return b.prefix + b.layout.Key(scope, file), true
	case PlacementFlat:
		return b.prefix + b.layout.FlatKey(scope, file), true
	}
	if len(locator) == 0 || strings.ContainsAny(locator, `/\`) {
		return "", false
	}
	return b.prefix + b.layout.Key(scope, locator), true
}

func (b *GCS) Delete(ctx context.Context, scope asset.Scope, locator string) (bool, error) {
	key, ok := b.key(scope, locator)
	if !ok {
		return false, nil
	}
	err := b.client.Bucket(b.bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: unable to delete object %q: %w", asset.ErrTransientWrite, key, err)
	}
	return true, nil
}

// Exists reads object attributes only.
func (b *GCS) Exists(ctx context.Context, u string) (bool, error) {
	rel, ok := b.layout.Relative(u)
	if !ok {
		return false, nil
	}
	_, err := b.client.Bucket(b.bucket).Object(b.prefix + rel).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
