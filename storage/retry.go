package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"imgres/asset"
)

// WithAuthRetry wraps backend so that mutating calls rejected with
// ErrAuthRejected are retried exactly once after credentials refresh. Second
// rejection is reported as asset.ErrTransientWrite.
func WithAuthRetry(b Backend, creds Credentials, log *zap.Logger) Backend {
	return &authRetry{Backend: b, creds: creds, log: log.Named("storage")}
}

type authRetry struct {
	Backend
	creds Credentials
	log   *zap.Logger
}

func (a *authRetry) Unwrap() Backend {
	return a.Backend
}

func (a *authRetry) Upload(ctx context.Context, scope asset.Scope, base, format string, data []byte) (res Uploaded, err error) {
	err = a.retry(ctx, "upload", func() error {
		res, err = a.Backend.Upload(ctx, scope, base, format, data)
		return err
	})
	return res, err
}

func (a *authRetry) Delete(ctx context.Context, scope asset.Scope, locator string) (ok bool, err error) {
	err = a.retry(ctx, "delete", func() error {
		ok, err = a.Backend.Delete(ctx, scope, locator)
		return err
	})
	return ok, err
}

// Exists is forwarded when wrapped backend supports it.
func (a *authRetry) Exists(ctx context.Context, url string) (bool, error) {
	if e, ok := a.Backend.(Exister); ok {
		return e.Exists(ctx, url)
	}
	return false, ErrNotSupported
}

func (a *authRetry) retry(ctx context.Context, op string, call func() error) error {
	err := call()
	if !errors.Is(err, ErrAuthRejected) {
		return err
	}
	a.log.Debug("Credentials rejected, refreshing", zap.String("op", op))
	if rerr := a.creds.Refresh(ctx); rerr != nil {
		return fmt.Errorf("%w: unable to refresh credentials: %w", asset.ErrTransientWrite, rerr)
	}
	if err = call(); errors.Is(err, ErrAuthRejected) {
		return fmt.Errorf("%w: %s rejected twice: %w", asset.ErrTransientWrite, op, err)
	}
	return err
}
