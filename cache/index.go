package cache

import (
	"slices"
	"strings"
	"time"

	"imgres/asset"
	"imgres/names"
	"imgres/utils/debug"
)

// Index is immutable snapshot of resolution cache: every merged record is
// reachable by its display name, sanitized name, canonical key and lower
// cased name.
type Index struct {
	scope   asset.Scope
	names   names.Normalizer
	records []asset.Record
	keys    map[string]asset.Location
	built   time.Time
}

// NewIndex registers records under all their lookup keys. Exact display
// names are registered first so a derived key of one record never shadows
// the display name of another.
func NewIndex(scope asset.Scope, n names.Normalizer, records []asset.Record) *Index {
	ix := &Index{
		scope:   scope,
		names:   n,
		records: records,
		keys:    make(map[string]asset.Location, 4*len(records)),
		built:   time.Now(),
	}
	for _, r := range records {
		if r.Location.IsZero() {
			continue
		}
		if _, ok := ix.keys[r.DisplayName]; !ok {
			ix.keys[r.DisplayName] = r.Location
		}
	}
	for _, r := range records {
		if r.Location.IsZero() {
			continue
		}
		for _, k := range []string{n.SanitizeSegment(r.DisplayName), r.CanonicalKey, strings.ToLower(r.DisplayName)} {
			// names in non-Latin scripts all sanitize to the same placeholder
			if k == names.Unnamed && !strings.EqualFold(r.DisplayName, names.Unnamed) {
				continue
			}
			if _, ok := ix.keys[k]; !ok {
				ix.keys[k] = r.Location
			}
		}
	}
	return ix
}

func (ix *Index) Scope() asset.Scope {
	return ix.scope
}

// Names returns normalizer keys were derived with.
func (ix *Index) Names() names.Normalizer {
	return ix.names
}

func (ix *Index) Built() time.Time {
	return ix.built
}

// Lookup is exact key lookup.
func (ix *Index) Lookup(key string) (asset.Location, bool) {
	if ix == nil {
		return asset.Location{}, false
	}
	loc, ok := ix.keys[key]
	return loc, ok
}

// LookupFold scans all keys comparing them case-insensitively, first match
// in key order wins.
func (ix *Index) LookupFold(name string) (asset.Location, bool) {
	if ix == nil {
		return asset.Location{}, false
	}
	for _, k := range ix.Keys() {
		if strings.EqualFold(k, name) {
			return ix.keys[k], true
		}
	}
	return asset.Location{}, false
}

// Keys returns all lookup keys sorted.
func (ix *Index) Keys() []string {
	keys := make([]string, 0, len(ix.keys))
	for k := range ix.keys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Records returns merged records, callers must not modify them.
func (ix *Index) Records() []asset.Record {
	if ix == nil {
		return nil
	}
	return ix.records
}

// Len is number of resolvable records.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	n := 0
	for _, r := range ix.records {
		if !r.Location.IsZero() {
			n++
		}
	}
	return n
}

// Dump renders index for debugging.
func (ix *Index) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Index %s built %s: %d records, %d keys", ix.scope, ix.built.Format(time.RFC3339), len(ix.records), len(ix.keys))
	for _, r := range ix.records {
		tw.Line(1, "%s [%s] preferred=%t", r.DisplayName, r.Source, r.Preferred)
		tw.TextBlock(2, "key", r.CanonicalKey)
		tw.TextBlock(2, "location", r.Location.Source())
		tw.List(2, "tags", r.Tags)
	}
	return tw.String()
}
