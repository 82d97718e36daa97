package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
)

const (
	listPath   = "/api/images/list"
	uploadPath = "/api/images/upload"
	deletePath = "/api/images/delete"
	indexFile  = "index.json"

	tokenHeader = "X-CSRF-Token"
	maxResponse = 16 << 20
)

// HTTPOptions tune remote backend.
type HTTPOptions struct {
	Timeout        time.Duration
	ListingTimeout time.Duration
	Client         *http.Client
}

// HTTP is a remote server storing images. Servers differ in how (and if)
// they list files, so every configured listing dialect is tried at once and
// the first usable answer wins.
type HTTP struct {
	endpoint string
	layout   Layout
	creds    Credentials
	dialects []common.ListingDialect
	client   *http.Client
	listing  time.Duration
	log      *zap.Logger
}

func NewHTTP(endpoint string, layout Layout, creds Credentials, dialects []common.ListingDialect, opts HTTPOptions, log *zap.Logger) (*HTTP, error) {
	u, err := url.Parse(endpoint)
	if err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		return nil, fmt.Errorf("bad storage endpoint %q", endpoint)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if creds == nil {
		creds = StaticToken("")
	}
	return &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		layout:   layout,
		creds:    creds,
		dialects: dialects,
		client:   client,
		listing:  opts.ListingTimeout,
		log:      log.Named("storage"),
	}, nil
}

func (b *HTTP) Layout() Layout {
	return b.layout
}

// absolute turns layout URL into request URL.
func (b *HTTP) absolute(u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	return b.endpoint + "/" + strings.TrimLeft(u, "/")
}

func (b *HTTP) ListFiles(ctx context.Context, scope asset.Scope) ([]File, error) {
	if len(b.dialects) == 0 {
		return nil, ErrListingUnavailable
	}
	if b.listing > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.listing)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		winner []File
		won    bool
		errs   error
		g      errgroup.Group
	)
	for _, d := range b.dialects {
		g.Go(func() error {
			files, err := b.list(ctx, d, scope)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !won {
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", d, err))
				}
				return nil
			}
			if !won {
				won, winner = true, files
				b.log.Debug("Listing dialect answered", zap.Stringer("dialect", d), zap.String("scope", scope.Key()), zap.Int("files", len(files)))
				// abandon the rest
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	if !won {
		return nil, fmt.Errorf("%w: %w", ErrListingUnavailable, errs)
	}
	return winner, nil
}

func (b *HTTP) list(ctx context.Context, d common.ListingDialect, scope asset.Scope) ([]File, error) {
	folder := b.layout.Folder(scope)

	var req *http.Request
	var err error
	switch d {
	case common.ListingDialectPostFolder:
		body, _ := json.Marshal(map[string]string{"folder": folder})
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+listPath, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	case common.ListingDialectGetFolder:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+listPath+"/"+url.PathEscape(folder), nil)
	case common.ListingDialectGetJson:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, b.absolute(b.layout.FileURL(scope, indexFile)), nil)
	default:
		return nil, fmt.Errorf("unknown dialect %d", d)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, err
	}

	if d == common.ListingDialectGetJson {
		return b.decodeIndex(scope, data)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unable to decode listing: %w", err)
	}
	files := make([]File, 0, len(list))
	for _, name := range list {
		// some servers return paths
		name = name[strings.LastIndexByte(name, '/')+1:]
		if _, ok := names.StripImageExtension(name); !ok {
			continue
		}
		files = append(files, File{Name: name, URL: b.layout.FileURL(scope, name), Preferred: true})
	}
	return files, nil
}

type indexEntry struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (b *HTTP) decodeIndex(scope asset.Scope, data []byte) ([]File, error) {
	var list []indexEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unable to decode index: %w", err)
	}
	files := make([]File, 0, len(list))
	for _, e := range list {
		if _, ok := names.StripImageExtension(e.Name); !ok {
			continue
		}
		f := File{Name: e.Name, URL: e.URL, Size: e.Size, Modified: e.Modified}
		if len(f.URL) == 0 {
			f.URL = b.layout.FileURL(scope, e.Name)
		}
		f.Preferred = true
		if placement, _ := b.layout.Classify(scope, f.URL); placement == PlacementFlat {
			f.Preferred = false
		}
		files = append(files, f)
	}
	return files, nil
}

// post sends authorized JSON request, 401/403 are reported as ErrAuthRejected.
func (b *HTTP) post(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	token, err := b.creds.Token(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAuthRejected, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(token) > 0 {
		req.Header.Set(tokenHeader, token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", asset.ErrTransientWrite, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrAuthRejected, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, fmt.Errorf("%w: %s", asset.ErrTransientWrite, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("%w: bad response: %w", asset.ErrTransientWrite, err)
		}
	}
	return resp.StatusCode, nil
}

func (b *HTTP) Upload(ctx context.Context, scope asset.Scope, base, format string, data []byte) (Uploaded, error) {
	format = names.FormatOrDefault(format)
	in := map[string]string{
		"image":    base64.StdEncoding.EncodeToString(data),
		"format":   format,
		"ch_name":  b.layout.Folder(scope),
		"filename": b.layout.Names.StorageBase(base),
	}
	var out struct {
		Path string `json:"path"`
	}
	status, err := b.post(ctx, uploadPath, in, &out)
	if err != nil {
		return Uploaded{}, err
	}
	if status == http.StatusNotFound {
		return Uploaded{}, ErrNotSupported
	}
	filename := b.layout.Filename(base, format)
	res := Uploaded{URL: out.Path, Filename: filename}
	if len(res.URL) == 0 {
		res.URL = b.layout.FileURL(scope, filename)
	} else if !strings.HasPrefix(res.URL, "/") && !strings.Contains(res.URL, "://") {
		res.URL = "/" + res.URL
	}
	b.log.Debug("File uploaded", zap.String("scope", scope.Key()), zap.String("url", res.URL))
	return res, nil
}

func (b *HTTP) Delete(ctx context.Context, scope asset.Scope, locator string) (bool, error) {
	u := locator
	if placement, _ := b.layout.Classify(scope, locator); placement == PlacementForeign {
		if strings.ContainsAny(locator, "/\\") {
			return false, nil
		}
		u = b.layout.FileURL(scope, locator)
	}
	if rel, ok := b.layout.Relative(u); ok {
		u = b.layout.prefix() + "/" + rel
	}
	status, err := b.post(ctx, deletePath, map[string]string{"path": u}, nil)
	if err != nil {
		return false, err
	}
	return status != http.StatusNotFound, nil
}

// Exists uses HEAD request, nothing is transferred.
func (b *HTTP) Exists(ctx context.Context, u string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, b.absolute(u), nil)
	if err != nil {
		return false, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	}
	return false, fmt.Errorf("unexpected status %s", resp.Status)
}
