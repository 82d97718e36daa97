package cache

import (
	"slices"

	"imgres/asset"
	"imgres/names"
	"imgres/source"
)

// Merge combines source batches into one record per canonical key.
//
// Identity (display name, tags) comes from the first record seen in source
// precedence order. Location is taken from a later record only when the
// merged one has none, except that location discovered in per-scope storage
// folder replaces any non-preferred one. Batches are ordered by precedence
// first so result does not depend on the order sources answered in.
func Merge(n names.Normalizer, batches []source.Batch) []asset.Record {
	ordered := slices.Clone(batches)
	slices.SortStableFunc(ordered, func(a, b source.Batch) int {
		return int(a.Kind) - int(b.Kind)
	})

	var out []asset.Record
	index := make(map[string]int)
	for _, b := range ordered {
		for _, r := range b.Records {
			key := r.CanonicalKey
			if len(key) == 0 {
				key = n.CanonicalKey(r.DisplayName)
			}
			i, seen := index[key]
			if !seen {
				r.CanonicalKey = key
				r.Tags = slices.Clone(r.Tags)
				// only discovered locations carry preference
				r.Preferred = r.Preferred && r.Source.Discovered() && !r.Location.IsZero()
				index[key] = len(out)
				out = append(out, r)
				continue
			}
			if r.Location.IsZero() {
				continue
			}
			cur := &out[i]
			switch {
			case cur.Location.IsZero():
				cur.Location = r.Location
				cur.Preferred = r.Preferred && r.Source.Discovered()
			case r.Preferred && r.Source.Discovered() && !cur.Preferred:
				cur.Location = r.Location
				cur.Preferred = true
			}
		}
	}
	return out
}
