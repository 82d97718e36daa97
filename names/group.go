package names

import (
	"regexp"
	"strconv"
	"strings"
)

// Separators which split asset names into group and variant parts.
const Separators = "_ "

var reNumericSuffix = regexp.MustCompile(`^(.*?)([ _-]?)(\d+)$`)

// NumericSuffix describes trailing number of a name: "happy_01" has base
// "happy", separator "_", digits "01" and value 1.
type NumericSuffix struct {
	Base   string
	Sep    string
	Digits string
	Value  int
}

// SplitNumericSuffix finds trailing number. Names consisting only of digits
// have no base and are not considered numbered.
func SplitNumericSuffix(name string) (NumericSuffix, bool) {
	m := reNumericSuffix.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil || len(m[1]) == 0 {
		return NumericSuffix{}, false
	}
	v, err := strconv.Atoi(m[3])
	if err != nil {
		// too many digits
		return NumericSuffix{}, false
	}
	return NumericSuffix{Base: m[1], Sep: m[2], Digits: m[3], Value: v}, true
}

// stripNumber removes trailing number together with its separator.
func stripNumber(name string) string {
	name = strings.TrimSpace(name)
	if ns, ok := SplitNumericSuffix(name); ok {
		return strings.TrimRight(ns.Base, Separators+"-")
	}
	return name
}

// ExtractBaseGroup strips trailing number and returns text before first
// separator, or whole cleaned name if there is none: "Junpei_nsfw_1" -> "Junpei".
func ExtractBaseGroup(name string) string {
	base := stripNumber(name)
	if i := strings.IndexAny(base, Separators); i > 0 {
		return base[:i]
	}
	if len(base) == 0 {
		return strings.TrimSpace(name)
	}
	return base
}

// GroupName assigns name to a group. Known groups win: derived base matching
// one case-insensitively, or starting with one followed by a separator (the
// longest such group). Otherwise ExtractBaseGroup decides.
func GroupName(name string, known []string) string {
	base := stripNumber(name)
	lbase := strings.ToLower(base)

	best := ""
	for _, g := range known {
		if len(g) == 0 {
			continue
		}
		lg := strings.ToLower(g)
		if lbase == lg {
			return g
		}
		if len(lg) > len(best) && len(lbase) > len(lg) && strings.HasPrefix(lbase, lg) && strings.IndexByte(Separators, lbase[len(lg)]) >= 0 {
			best = g
		}
	}
	if len(best) > 0 {
		return best
	}
	return ExtractBaseGroup(name)
}
