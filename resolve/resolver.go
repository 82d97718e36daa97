package resolve

import (
	"strings"

	"go.uber.org/zap"

	"imgres/asset"
	"imgres/cache"
	"imgres/config"
	"imgres/metrics"
	"imgres/names"
	"imgres/storage"
)

// Lookup tiers, in the order they are tried.
const (
	TierExact     = "exact"
	TierSanitized = "sanitized"
	TierCanonical = "canonical"
	TierFold      = "fold"
	TierGuess     = "guess"
	TierMiss      = "miss"
)

// Result of resolving a text.
type Result struct {
	Text     string
	Hit      bool
	Resolved []string
	Missing  []string
	Guessed  int
}

// Resolver substitutes placeholders using resolution indexes. It never
// fails: unresolved placeholders are left in text as they are.
type Resolver struct {
	markup        *Markup
	guess         bool
	defaultFormat string
	layout        storage.Layout
	metrics       *metrics.Observer
	log           *zap.Logger
}

func New(cfg *config.ResolverConfig, layout storage.Layout, m *metrics.Observer, log *zap.Logger) (*Resolver, error) {
	markup, err := NewMarkup(cfg.MarkupTemplate)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		markup:        markup,
		guess:         cfg.GuessDirectURL,
		defaultFormat: names.FormatOrDefault(cfg.DefaultFormat),
		layout:        layout,
		metrics:       m,
		log:           log.Named("resolve"),
	}, nil
}

type hit struct {
	loc   asset.Location
	scope asset.Scope
	tier  string
}

// lookup walks tiers, within a tier candidates are tried in order against
// indexes in priority order.
func (r *Resolver) lookup(p Placeholder, indexes []*cache.Index) (hit, bool) {
	candidates := p.Candidates()

	tiers := []struct {
		name string
		key  func(ix *cache.Index, c string) string
	}{
		{TierExact, func(_ *cache.Index, c string) string { return c }},
		{TierSanitized, func(ix *cache.Index, c string) string { return ix.Names().SanitizeSegment(c) }},
		{TierCanonical, func(ix *cache.Index, c string) string { return ix.Names().CanonicalKey(c) }},
	}
	for _, tier := range tiers {
		for _, c := range candidates {
			for _, ix := range indexes {
				key := tier.key(ix, c)
				if key == names.Unnamed && !strings.EqualFold(c, names.Unnamed) {
					continue
				}
				if loc, ok := ix.Lookup(key); ok {
					return hit{loc: loc, scope: ix.Scope(), tier: tier.name}, true
				}
			}
		}
	}
	for _, c := range candidates {
		for _, ix := range indexes {
			if loc, ok := ix.LookupFold(c); ok {
				return hit{loc: loc, scope: ix.Scope(), tier: TierFold}, true
			}
		}
	}

	if r.guess && len(indexes) > 0 {
		base, format := p.Name, r.defaultFormat
		if stripped, ok := names.StripImageExtension(p.Name); ok {
			base, format = stripped, names.FormatOrDefault(p.Name[len(stripped)+1:])
		}
		scope := indexes[0].Scope()
		u := r.layout.FileURL(scope, r.layout.Filename(base, format))
		return hit{loc: asset.URL(u), scope: scope, tier: TierGuess}, true
	}
	return hit{}, false
}

// Resolve replaces every resolvable placeholder in text with markup.
// Indexes are consulted in the order given, nil indexes are ignored.
func (r *Resolver) Resolve(text string, indexes ...*cache.Index) Result {
	res := Result{Text: text}

	placeholders := Scan(text)
	if len(placeholders) == 0 {
		return res
	}
	active := make([]*cache.Index, 0, len(indexes))
	for _, ix := range indexes {
		if ix != nil {
			active = append(active, ix)
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, p := range placeholders {
		b.WriteString(text[last:p.Start])
		last = p.End

		h, ok := r.lookup(p, active)
		if !ok {
			r.metrics.Lookup(TierMiss)
			r.log.Debug("Placeholder unresolved", zap.String("name", p.Name))
			res.Missing = append(res.Missing, p.Name)
			b.WriteString(p.Raw)
			continue
		}
		out, err := r.markup.Render(Values{
			Name:   p.Name,
			Raw:    p.Raw,
			Src:    safeSrc(h.loc),
			Inline: h.loc.IsInline(),
			Scope:  h.scope.Key(),
			Tier:   h.tier,
		})
		if err != nil {
			r.log.Warn("Unable to render placeholder markup", zap.String("name", p.Name), zap.Error(err))
			res.Missing = append(res.Missing, p.Name)
			b.WriteString(p.Raw)
			continue
		}
		r.metrics.Lookup(h.tier)
		if h.tier == TierGuess {
			res.Guessed++
		}
		res.Hit = true
		res.Resolved = append(res.Resolved, p.Name)
		b.WriteString(out)
	}
	b.WriteString(text[last:])
	res.Text = b.String()
	return res
}
