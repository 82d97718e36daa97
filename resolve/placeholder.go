// Package resolve substitutes image placeholders in text.
package resolve

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"imgres/names"
)

// Placeholder is a parsed %%img:NAME%% token.
type Placeholder struct {
	Raw   string
	Name  string
	Start int
	End   int
}

const (
	tokenPrefix = "%%img:"
	tokenSuffix = "%%"
)

var rePlaceholder = regexp.MustCompile(`%%img:([^%\r\n]*?)%%`)

// Token formats placeholder for a name.
func Token(name string) string {
	return tokenPrefix + name + tokenSuffix
}

// HasPlaceholders is a cheap check used before scanning.
func HasPlaceholders(text string) bool {
	return strings.Contains(text, tokenPrefix) && rePlaceholder.MatchString(text)
}

// Scan returns placeholders in text order, tokens with blank names are not
// placeholders. Text may be HTML, character references in names are
// decoded while Raw keeps the token as found.
func Scan(text string) []Placeholder {
	if !strings.Contains(text, tokenPrefix) {
		return nil
	}
	var out []Placeholder
	for _, m := range rePlaceholder.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(html.UnescapeString(text[m[2]:m[3]]))
		if len(name) == 0 {
			continue
		}
		out = append(out, Placeholder{Raw: text[m[0]:m[1]], Name: name, Start: m[0], End: m[1]})
	}
	return out
}

// Candidates returns names to look up: the name itself and, when it ends
// with image extension, the name without it.
func (p Placeholder) Candidates() []string {
	if stripped, ok := names.StripImageExtension(p.Name); ok && len(stripped) > 0 {
		return []string{p.Name, stripped}
	}
	return []string{p.Name}
}
