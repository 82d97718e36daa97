// Package asset defines image asset records, their locations and scopes.
package asset

import (
	"fmt"
	"strings"

	"imgres/common"
)

// Scope is isolation boundary for asset registries - one per character or
// persona. Scopes never share records.
type Scope struct {
	Kind common.ScopeKind
	ID   string
}

func Character(id string) Scope {
	return Scope{Kind: common.ScopeKindCharacter, ID: id}
}

func Persona(name string) Scope {
	return Scope{Kind: common.ScopeKindPersona, ID: name}
}

// ParseScope accepts "character:Alice" or "persona:Bob", bare names are characters.
func ParseScope(s string) (Scope, error) {
	kind, id, found := strings.Cut(s, ":")
	if !found {
		kind, id = common.ScopeKindCharacter.String(), s
	}
	k, err := common.ParseScopeKind(kind)
	if err != nil {
		return Scope{}, fmt.Errorf("unable to parse scope %q: %w", s, err)
	}
	if id = strings.TrimSpace(id); len(id) == 0 {
		return Scope{}, fmt.Errorf("unable to parse scope %q: empty name", s)
	}
	return Scope{Kind: k, ID: id}, nil
}

func (s Scope) IsZero() bool {
	return len(s.ID) == 0
}

// Key uniquely identifies scope, suitable as map key and for persistence.
func (s Scope) Key() string {
	return s.Kind.String() + ":" + s.ID
}

func (s Scope) String() string {
	return s.Key()
}
