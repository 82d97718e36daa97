package asset

import (
	"strings"

	"imgres/common"
	"imgres/names"
)

// Entry is persisted registry layout of an asset. Legacy layout carries
// inline base64 Data instead of Filename/URL.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Filename string   `yaml:"filename,omitempty" json:"filename,omitempty"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Data     string   `yaml:"data,omitempty" json:"data,omitempty"`
}

// Locator knows where storage serves files from.
type Locator interface {
	FileURL(scope Scope, filename string) string
}

// Location derives tagged location from whatever optional fields are
// present, in order url, path, filename, data.
func (e Entry) Location(scope Scope, loc Locator) Location {
	switch {
	case len(strings.TrimSpace(e.URL)) > 0:
		return URL(e.URL)
	case len(strings.TrimSpace(e.Path)) > 0:
		return URL(e.Path)
	case len(strings.TrimSpace(e.Filename)) > 0 && loc != nil:
		return URL(loc.FileURL(scope, e.Filename))
	case len(e.Data) > 0:
		return Inline(e.Data)
	}
	return Location{}
}

// Record converts persisted entry into metadata record.
func (e Entry) Record(n names.Normalizer, scope Scope, loc Locator) Record {
	r := NewRecord(n, e.Name, e.Location(scope, loc), common.SourceKindMetadata)
	r.Tags = NormalizeTags(e.Tags)
	return r
}

// Find returns index of entry with the name (case-insensitive), -1 if absent.
func Find(entries []Entry, name string) int {
	name = strings.TrimSpace(name)
	for i := range entries {
		if strings.EqualFold(strings.TrimSpace(entries[i].Name), name) {
			return i
		}
	}
	return -1
}
