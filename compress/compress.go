// Package compress summarizes large sets of asset names into compact text:
// numbered runs become ranges, same-group variants become enumerations.
package compress

import (
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"

	"imgres/names"
)

// Group is a set of names sharing detected group prefix.
type Group struct {
	Name    string
	Names   []string
	Entries []string
}

type entry struct {
	text string
	// first name covered by entry, used for ordering
	first string
}

// knownGroups derives group names from the whole set, case variants are
// folded onto first seen spelling.
func knownGroups(all []string, extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(g string) {
		if len(g) == 0 || seen[strings.ToLower(g)] {
			return
		}
		seen[strings.ToLower(g)] = true
		out = append(out, g)
	}
	for _, g := range extra {
		add(strings.TrimSpace(g))
	}
	for _, n := range all {
		add(names.ExtractBaseGroup(n))
	}
	return out
}

func prepare(in []string) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n = strings.TrimSpace(n); len(n) > 0 {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		}
		return 1
	})
	return slices.Compact(out)
}

// Compress groups names and compresses every group. Groups are returned in
// natural order, extra names known groups in addition to ones derived from
// the set itself.
func Compress(list []string, extra ...string) []Group {
	all := prepare(list)
	known := knownGroups(all, extra)

	index := make(map[string]int)
	var groups []Group
	for _, n := range all {
		g := names.GroupName(n, known)
		i, ok := index[strings.ToLower(g)]
		if !ok {
			i = len(groups)
			index[strings.ToLower(g)] = i
			groups = append(groups, Group{Name: g})
		}
		groups[i].Names = append(groups[i].Names, n)
	}
	for i := range groups {
		groups[i].Entries = compressGroup(groups[i].Name, groups[i].Names)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})
	return groups
}

type runKey struct {
	base, sep string
}

func compressGroup(group string, list []string) []string {
	var entries []entry

	// numbered names by base and separator
	runs := make(map[runKey][]names.NumericSuffix)
	var order []runKey
	// plain variants by separator following group prefix
	variants := make(map[byte][]string)
	var plain []string

	for _, n := range list {
		if ns, ok := names.SplitNumericSuffix(n); ok {
			k := runKey{ns.Base, ns.Sep}
			if _, seen := runs[k]; !seen {
				order = append(order, k)
			}
			runs[k] = append(runs[k], ns)
			continue
		}
		if len(n) > len(group)+1 && strings.EqualFold(n[:len(group)], group) && strings.IndexByte(names.Separators, n[len(group)]) >= 0 {
			sep := n[len(group)]
			variants[sep] = append(variants[sep], n)
			continue
		}
		plain = append(plain, n)
	}

	for _, n := range plain {
		entries = append(entries, entry{text: n, first: n})
	}
	for _, k := range order {
		entries = append(entries, ranges(k, runs[k])...)
	}
	for _, sep := range []byte(names.Separators) {
		vs := variants[sep]
		switch len(vs) {
		case 0:
		case 1:
			entries = append(entries, entry{text: vs[0], first: vs[0]})
		default:
			entries = append(entries, enumeration(group, sep, vs))
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case natural.Less(a.first, b.first):
			return -1
		case natural.Less(b.first, a.first):
			return 1
		}
		return 0
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.text
	}
	return out
}

// ranges emits runs of consecutive numbers written the same way. A gap, a
// repeated value or a change of zero padding starts new run, so every number
// in a range exists. Single number keeps original name.
func ranges(k runKey, list []names.NumericSuffix) []entry {
	slices.SortStableFunc(list, func(a, b names.NumericSuffix) int {
		if a.Value != b.Value {
			return a.Value - b.Value
		}
		return strings.Compare(a.Digits, b.Digits)
	})
	var out []entry
	for i := 0; i < len(list); {
		j := i
		for j+1 < len(list) && follows(list[j], list[j+1]) {
			j++
		}
		start, end := list[i], list[j]
		name := k.base + k.sep + start.Digits
		if start.Value == end.Value {
			out = append(out, entry{text: name, first: name})
		} else {
			out = append(out, entry{text: fmt.Sprintf("%s%s%s~%s", k.base, k.sep, start.Digits, end.Digits), first: name})
		}
		i = j + 1
	}
	return out
}

// follows reports whether b continues run ending with a.
func follows(a, b names.NumericSuffix) bool {
	if b.Value != a.Value+1 {
		return false
	}
	return len(a.Digits) == len(b.Digits) || (!padded(a.Digits) && !padded(b.Digits))
}

func padded(digits string) bool {
	return len(digits) > 1 && digits[0] == '0'
}

func enumeration(group string, sep byte, list []string) entry {
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = n[len(group)+1:]
	}
	hint := `"_"`
	if sep == ' ' {
		hint = "space"
	}
	prefix := list[0][:len(group)]
	return entry{
		text:  fmt.Sprintf("%s%c[%s] (joined with %s)", prefix, sep, strings.Join(parts, ", "), hint),
		first: list[0],
	}
}

// Entries returns compressed entries of all groups.
func Entries(list []string, extra ...string) []string {
	var out []string
	for _, g := range Compress(list, extra...) {
		out = append(out, g.Entries...)
	}
	return out
}

// CompressNames returns single line summary suitable for prompts.
func CompressNames(list []string, extra ...string) string {
	return strings.Join(Entries(list, extra...), ", ")
}

// Summary returns one line per group.
func Summary(list []string, extra ...string) string {
	var b strings.Builder
	for _, g := range Compress(list, extra...) {
		fmt.Fprintf(&b, "%s (%d): %s\n", g.Name, len(g.Names), strings.Join(g.Entries, ", "))
	}
	return b.String()
}
