package asset

import (
	"errors"
	"fmt"
	"strings"

	"imgres/names"
)

var (
	// ErrNameCollision is returned when write would create second asset with
	// the same name or canonical key.
	ErrNameCollision = errors.New("asset name collision")
	// ErrNotFound is returned by mutations addressing unknown asset.
	ErrNotFound = errors.New("asset not found")
	// ErrTransientWrite marks registry or storage write failures which may
	// succeed if repeated.
	ErrTransientWrite = errors.New("asset write failed")
)

// CollisionError describes rejected write.
type CollisionError struct {
	Name     string
	Existing string
	Key      string
}

func (e *CollisionError) Error() string {
	if strings.EqualFold(e.Name, e.Existing) {
		return fmt.Sprintf("asset %q already exists", e.Existing)
	}
	return fmt.Sprintf("asset %q conflicts with existing %q (both stored as %q)", e.Name, e.Existing, e.Key)
}

func (e *CollisionError) Unwrap() error {
	return ErrNameCollision
}

// CheckUnique verifies that name could be added to entries. Entry with index
// skip is ignored (renaming), pass -1 to check everything.
func CheckUnique(n names.Normalizer, entries []Entry, name string, skip int) error {
	key := n.CanonicalKey(name)
	for i := range entries {
		if i == skip {
			continue
		}
		existing := strings.TrimSpace(entries[i].Name)
		if strings.EqualFold(existing, strings.TrimSpace(name)) || n.CanonicalKey(existing) == key {
			return &CollisionError{Name: name, Existing: existing, Key: key}
		}
	}
	return nil
}
