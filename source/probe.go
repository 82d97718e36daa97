package source

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"imgres/asset"
	"imgres/common"
	"imgres/metrics"
	"imgres/names"
	"imgres/storage"
)

// NameLister supplies names worth probing.
type NameLister interface {
	Names(ctx context.Context, scope asset.Scope) ([]string, error)
}

// ProbeOptions bound probing.
type ProbeOptions struct {
	Formats       []string
	MaxCandidates int
	Concurrency   int
	// checks per second, 0 - unlimited
	Rate      float64
	CacheSize int
	Timeout   time.Duration
}

// pattern is a way storage could name a file.
type pattern struct {
	format    string
	preferred bool
}

// Probe guesses file URLs for registered names and checks their existence
// without transferring anything. Once a pattern works for a scope only that
// pattern is tried for the rest of names.
type Probe struct {
	exister storage.Exister
	layout  storage.Layout
	names   NameLister
	opts    ProbeOptions
	limiter *rate.Limiter
	known   *lru.Cache[string, bool]
	metrics *metrics.Observer
	log     *zap.Logger

	mu      sync.Mutex
	working map[string]pattern
}

func NewProbe(exister storage.Exister, layout storage.Layout, lister NameLister, opts ProbeOptions, m *metrics.Observer, log *zap.Logger) (*Probe, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{names.DefaultFormat}
	}
	p := &Probe{
		exister: exister,
		layout:  layout,
		names:   lister,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Inf, 1),
		metrics: m,
		log:     log.Named("probe"),
		working: make(map[string]pattern),
	}
	if opts.Rate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.Rate), opts.Concurrency)
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, bool](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		p.known = cache
	}
	return p, nil
}

func (p *Probe) Kind() common.SourceKind {
	return common.SourceKindProbe
}

func (p *Probe) patterns(scope asset.Scope) []pattern {
	p.mu.Lock()
	w, found := p.working[scope.Key()]
	p.mu.Unlock()
	if found {
		return []pattern{w}
	}
	out := make([]pattern, 0, 2*len(p.opts.Formats))
	for _, preferred := range []bool{true, false} {
		for _, f := range p.opts.Formats {
			out = append(out, pattern{format: names.FormatOrDefault(f), preferred: preferred})
		}
	}
	return out
}

func (p *Probe) url(scope asset.Scope, name string, pt pattern) string {
	filename := p.layout.Filename(name, pt.format)
	if pt.preferred {
		return p.layout.FileURL(scope, filename)
	}
	return p.layout.FlatURL(scope, filename)
}

// check consults existence cache first, issued checks count against budget.
func (p *Probe) check(ctx context.Context, url string, budget *int, mu *sync.Mutex) (bool, error) {
	if p.known != nil {
		if found, ok := p.known.Get(url); ok {
			p.metrics.ProbeChecked(found, true)
			return found, nil
		}
	}
	mu.Lock()
	if *budget <= 0 {
		mu.Unlock()
		return false, errBudget
	}
	*budget--
	mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return false, err
	}
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	found, err := p.exister.Exists(ctx, url)
	if err != nil {
		return false, err
	}
	if p.known != nil {
		p.known.Add(url, found)
	}
	p.metrics.ProbeChecked(found, false)
	return found, nil
}

var errBudget = errors.New("probe candidate budget exhausted")

// probeName tries patterns for a single name in order, returns first which
// exists.
func (p *Probe) probeName(ctx context.Context, scope asset.Scope, name string, pts []pattern, budget *int, mu *sync.Mutex) (pattern, string, bool, error) {
	for _, pt := range pts {
		u := p.url(scope, name, pt)
		found, err := p.check(ctx, u, budget, mu)
		if err != nil {
			if errors.Is(err, errBudget) || errors.Is(err, storage.ErrNotSupported) || ctx.Err() != nil {
				return pattern{}, "", false, err
			}
			// single failed check is not fatal
			p.log.Debug("Existence check failed", zap.String("url", u), zap.Error(err))
			continue
		}
		if found {
			return pt, u, true, nil
		}
	}
	return pattern{}, "", false, nil
}

func (p *Probe) List(ctx context.Context, scope asset.Scope) ([]asset.Record, error) {
	if p.exister == nil {
		return nil, storage.ErrNotSupported
	}
	candidates, err := p.names.Names(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	budget := p.opts.MaxCandidates
	if budget <= 0 {
		budget = len(candidates) * len(p.patterns(scope))
	}
	var mu sync.Mutex
	var records []asset.Record
	add := func(name, u string, pt pattern) {
		r := asset.NewRecord(p.layout.Names, name, asset.URL(u), common.SourceKindProbe)
		r.Preferred = pt.preferred
		mu.Lock()
		records = append(records, r)
		mu.Unlock()
	}

	// sequentially until some pattern works
	rest := candidates
	p.mu.Lock()
	_, learned := p.working[scope.Key()]
	p.mu.Unlock()
	for !learned && len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]
		pt, u, found, err := p.probeName(ctx, scope, name, p.patterns(scope), &budget, &mu)
		if err != nil {
			return p.finish(scope, records, err)
		}
		if found {
			add(name, u, pt)
			p.mu.Lock()
			p.working[scope.Key()] = pt
			p.mu.Unlock()
			learned = true
			p.log.Debug("Working pattern found", zap.String("scope", scope.Key()), zap.String("format", pt.format), zap.Bool("preferred", pt.preferred))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	pts := p.patterns(scope)
	for _, name := range rest {
		g.Go(func() error {
			pt, u, found, err := p.probeName(gctx, scope, name, pts, &budget, &mu)
			if err != nil {
				return err
			}
			if found {
				add(name, u, pt)
			}
			return nil
		})
	}
	err = g.Wait()
	return p.finish(scope, records, err)
}

// finish keeps whatever was found before budget ran out.
func (p *Probe) finish(scope asset.Scope, records []asset.Record, err error) ([]asset.Record, error) {
	if errors.Is(err, errBudget) {
		p.log.Debug("Probing stopped", zap.String("scope", scope.Key()), zap.Int("found", len(records)), zap.Error(err))
		return records, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Forget drops learned pattern, called when storage layout may have changed.
func (p *Probe) Forget(scope asset.Scope) {
	p.mu.Lock()
	delete(p.working, scope.Key())
	p.mu.Unlock()
	if p.known != nil {
		p.known.Purge()
	}
}
