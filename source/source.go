// Package source provides asset records for resolution caches.
package source

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"imgres/asset"
	"imgres/common"
	"imgres/metrics"
	"imgres/storage"
)

// Source produces asset records for a scope. Failure of one source never
// fails the others.
type Source interface {
	Kind() common.SourceKind
	List(ctx context.Context, scope asset.Scope) ([]asset.Record, error)
}

// Batch is output of one source.
type Batch struct {
	Kind    common.SourceKind
	Records []asset.Record
	Err     error
}

// Set queries sources of a cache. Metadata and listings run concurrently,
// probe only runs when no listing produced data.
type Set struct {
	Metadata Source
	Listings []Source
	Probe    Source
	Metrics  *metrics.Observer
	Log      *zap.Logger
}

// Fetch returns batches ordered by source precedence. Failed sources
// contribute empty batches with Err set.
func (s *Set) Fetch(ctx context.Context, scope asset.Scope) []Batch {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	all := make([]Source, 0, len(s.Listings)+1)
	if s.Metadata != nil {
		all = append(all, s.Metadata)
	}
	all = append(all, s.Listings...)

	batches := make([]Batch, len(all))
	var g errgroup.Group
	for i, src := range all {
		g.Go(func() error {
			batches[i] = s.run(ctx, src, scope, log)
			return nil
		})
	}
	_ = g.Wait()

	if s.Probe == nil || ctx.Err() != nil {
		return batches
	}
	listed := false
	for _, b := range batches {
		if b.Kind == common.SourceKindFileListing && b.Err == nil {
			listed = true
			break
		}
	}
	if !listed {
		batches = append(batches, s.run(ctx, s.Probe, scope, log))
	}
	return batches
}

func (s *Set) run(ctx context.Context, src Source, scope asset.Scope, log *zap.Logger) Batch {
	start := time.Now()
	records, err := src.List(ctx, scope)
	if err != nil {
		s.Metrics.SourceFailed(src.Kind().String())
		level := zap.WarnLevel
		if errors.Is(err, storage.ErrListingUnavailable) || errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		log.Log(level, "Asset source contributed nothing", zap.Stringer("source", src.Kind()), zap.String("scope", scope.Key()), zap.Error(err))
		return Batch{Kind: src.Kind(), Err: err}
	}
	log.Debug("Asset source listed", zap.Stringer("source", src.Kind()), zap.String("scope", scope.Key()),
		zap.Int("records", len(records)), zap.Duration("elapsed", time.Since(start)))
	return Batch{Kind: src.Kind(), Records: records}
}
