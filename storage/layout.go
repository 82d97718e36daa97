package storage

import (
	"net/url"
	"strings"

	"imgres/asset"
	"imgres/common"
	"imgres/names"
)

// Placement tells where file URL points relative to a scope.
type Placement int

const (
	// PlacementForeign - URL is outside of storage or belongs to another scope.
	PlacementForeign Placement = iota
	// PlacementFlat - legacy flat layout: <prefix>/<folder>_<file>.
	PlacementFlat
	// PlacementPreferred - per-scope folder: <prefix>/<folder>/<file>.
	PlacementPreferred
)

// Layout is URL and file naming convention shared by all backends.
type Layout struct {
	Prefix string
	Names  names.Normalizer
}

func (l Layout) prefix() string {
	return strings.TrimRight(l.Prefix, "/")
}

// persona folders are prefixed, character ones keep bare names
const personaFolderPrefix = "persona_"

// Folder is per-scope folder name. Character and persona with the same name
// get different folders.
func (l Layout) Folder(scope asset.Scope) string {
	base := l.Names.StorageBase(scope.ID)
	if scope.Kind == common.ScopeKindPersona {
		return personaFolderPrefix + base
	}
	return base
}

// Filename is the name under which storage keeps asset file.
func (l Layout) Filename(base, format string) string {
	return l.Names.StorageBase(base) + "." + names.FormatOrDefault(format)
}

// Key is file path relative to the prefix.
func (l Layout) Key(scope asset.Scope, filename string) string {
	return l.Folder(scope) + "/" + filename
}

// FlatKey is legacy file path relative to the prefix.
func (l Layout) FlatKey(scope asset.Scope, filename string) string {
	return l.Folder(scope) + "_" + filename
}

// FileURL returns URL of file in per-scope folder.
func (l Layout) FileURL(scope asset.Scope, filename string) string {
	return l.prefix() + "/" + l.Key(scope, filename)
}

// FlatURL returns URL of file stored using legacy flat layout.
func (l Layout) FlatURL(scope asset.Scope, filename string) string {
	return l.prefix() + "/" + l.FlatKey(scope, filename)
}

// Relative strips prefix from URL, absolute URLs are compared by path when
// prefix itself is just a path.
func (l Layout) Relative(u string) (string, bool) {
	p := l.prefix() + "/"
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if strings.HasPrefix(u, p) {
		return u[len(p):], true
	}
	if strings.Contains(p, "://") {
		return "", false
	}
	pu, err := url.Parse(u)
	if err != nil || !strings.HasPrefix(pu.Path, p) {
		return "", false
	}
	return pu.Path[len(p):], true
}

// Classify finds out where URL points for the scope and returns file name.
func (l Layout) Classify(scope asset.Scope, u string) (Placement, string) {
	rel, ok := l.Relative(u)
	if !ok {
		return PlacementForeign, ""
	}
	folder := l.Folder(scope)
	if file, found := strings.CutPrefix(rel, folder+"/"); found && len(file) > 0 && !strings.Contains(file, "/") {
		return PlacementPreferred, file
	}
	if file, found := strings.CutPrefix(rel, folder+"_"); found && len(file) > 0 && !strings.Contains(file, "/") {
		return PlacementFlat, file
	}
	return PlacementForeign, ""
}
