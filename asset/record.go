package asset

import (
	"slices"
	"strings"

	"imgres/common"
	"imgres/names"
)

// Record is one logical image asset as seen by a source.
type Record struct {
	DisplayName  string
	CanonicalKey string
	Location     Location
	Tags         []string
	Source       common.SourceKind
	// Preferred is set when location points into per-scope storage folder,
	// such location beats flat (legacy) ones during merge.
	Preferred bool
}

// NewRecord creates record with canonical key derived by normalizer n.
func NewRecord(n names.Normalizer, name string, loc Location, src common.SourceKind) Record {
	name = strings.TrimSpace(name)
	return Record{
		DisplayName:  name,
		CanonicalKey: n.CanonicalKey(name),
		Location:     loc,
		Source:       src,
	}
}

// IsLegacyInline is true for records still carrying inline data.
func (r Record) IsLegacyInline() bool {
	return r.Location.IsInline()
}

// NormalizeTags trims, drops empty and duplicate tags and sorts the rest.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); len(t) > 0 {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
