package library

import (
	"context"

	"imgres/asset"
	"imgres/render"
	"imgres/resolve"
)

// Target binds library to scopes active in a document, scopes are listed
// in priority order (character before persona).
type Target struct {
	lib    *Library
	scopes []asset.Scope
}

var _ render.Target = (*Target)(nil)

func (l *Library) Target(scopes ...asset.Scope) *Target {
	return &Target{lib: l, scopes: scopes}
}

func (t *Target) Scopes() []asset.Scope {
	return t.scopes
}

func (t *Target) HasAssets(ctx context.Context) (bool, error) {
	return t.lib.HasAssets(ctx, t.scopes...)
}

func (t *Target) ResolveText(ctx context.Context, text string) (resolve.Result, error) {
	return t.lib.ResolveText(ctx, text, t.scopes...)
}

// Invalidate drops caches of all target scopes.
func (t *Target) Invalidate() {
	for _, s := range t.scopes {
		t.lib.Invalidate(s)
	}
}
