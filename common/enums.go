// Package common keeps enums shared between configuration and the engine
// packages, so config does not have to import domain code.
package common

//go:generate go tool go-enum --marshal --names

// Isolation boundary for asset registries.
// ENUM(character, persona)
type ScopeKind int

// Provenance of an asset record, order is merge precedence.
// ENUM(metadata, fileListing, probe)
type SourceKind int

// Kind of asset location.
// ENUM(none, url, inline)
type LocationKind int

// Registry store implementation.
// ENUM(yaml, sqlite, memory)
type RegistryKind int

// Storage backend implementation.
// ENUM(none, local, http, gcs)
type StorageKind int

// Listing request shape understood by remote storage.
// ENUM(post-folder, get-folder, get-json)
type ListingDialect int

// Precedes reports whether records from s take identity precedence over
// records from o.
func (s SourceKind) Precedes(o SourceKind) bool {
	return s < o
}

// Discovered reports whether the source proves the file exists.
func (s SourceKind) Discovered() bool {
	return s == SourceKindFileListing || s == SourceKindProbe
}

// State of the render scheduler.
// ENUM(idle, queued, draining, suspended-by-scroll)
type RenderState int

// Document change reported to the render scheduler.
// ENUM(added, mutated, visible, hidden, removed)
type ChangeKind int
