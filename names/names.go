// Package names turns raw asset names and file names into comparable keys.
//
// All functions are pure and never fail: whatever goes in, some usable string
// comes out, falling back to Unnamed for empty results.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unnamed is used whenever sanitizing leaves nothing behind.
const Unnamed = "unnamed"

// Normalizer carries options which change how storage file names are derived.
// Zero value is ready to use.
type Normalizer struct {
	// Transliterate converts words in non-Latin scripts to ASCII before
	// sanitizing, otherwise such names collapse into Unnamed.
	Transliterate bool
}

var std Normalizer

// StripDiacritics removes combining marks after canonical decomposition:
// "Café" -> "Cafe".
func StripDiacritics(s string) string {
	if isASCII(s) {
		return s
	}
	// transformers keep state, new chain for every call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeSegment makes name safe to be used as a path segment.
func SanitizeSegment(s string) string {
	return std.SanitizeSegment(s)
}

// StorageBase returns the base file name storage backends use for an asset name.
func StorageBase(name string) string {
	return std.StorageBase(name)
}

// CanonicalKey returns the merge key of an asset name.
func CanonicalKey(name string) string {
	return std.CanonicalKey(name)
}

// SanitizeSegment strips diacritics, replaces everything outside of
// [A-Za-z0-9_.-] with underscore, collapses and trims underscores.
func (n Normalizer) SanitizeSegment(s string) string {
	return replaceRunes(n.prepare(s), func(r rune) bool {
		return r == '.' || isStorageRune(r)
	})
}

// StorageBase is stricter than SanitizeSegment: dots are not allowed either,
// so the result never has an ambiguous extension. This is the rule every
// storage backend applies when naming files.
func (n Normalizer) StorageBase(name string) string {
	return replaceRunes(n.prepare(name), isStorageRune)
}

// CanonicalKey is lowercased StorageBase. Two names have the same canonical key
// exactly when storage would produce the same file name for them (ignoring case).
func (n Normalizer) CanonicalKey(name string) string {
	return strings.ToLower(n.StorageBase(name))
}

func (n Normalizer) prepare(s string) string {
	s = strings.TrimSpace(s)
	if n.Transliterate && !isASCII(s) {
		s = transliterate(s)
	}
	return StripDiacritics(s)
}

func isStorageRune(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-')
}

// replaceRunes substitutes disallowed runes with single underscore.
func replaceRunes(s string, allowed func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	underscore := false
	for _, r := range s {
		if !allowed(r) {
			r = '_'
		}
		if r == '_' {
			if underscore {
				continue
			}
			underscore = true
		} else {
			underscore = false
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_")
	if len(out) == 0 {
		return Unnamed
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// transliterate converts words to ASCII keeping word boundaries and
// capitalization of the first letter: "Алиса смеётся" -> "Alisa smeiotsia".
func transliterate(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if isASCII(word) {
			continue
		}
		trans := slug.Make(word)
		if trans == "" {
			continue
		}
		if first, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(first) {
			r, size := utf8.DecodeRuneInString(trans)
			trans = string(unicode.ToUpper(r)) + trans[size:]
		}
		words[i] = trans
	}
	return strings.Join(words, " ")
}
