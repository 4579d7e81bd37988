package sources

import "strings"

// namingRules holds the prefixes and suffixes each ecosystem adds to upstream
// project names when they are repackaged.
var namingRules = map[Kind]struct {
	prefixes []string
	suffixes []string
}{
	KindFeedstock: {suffixes: []string{"-feedstock"}},
	KindPyPI:      {prefixes: []string{"python-", "py-"}, suffixes: []string{"-python", "-py"}},
	KindNpm:       {prefixes: []string{"node-"}, suffixes: []string{"-js"}},
	KindCrates:    {prefixes: []string{"rust-"}, suffixes: []string{"-rs"}},
}

// PossibleNames returns the ordered, de-duplicated name variants a registry
// is queried with for a canonical package name. The canonical name is always
// first. At most one prefix or suffix is stripped.
func PossibleNames(kind Kind, canonical string) []string {
	names := []string{canonical}

	rules := namingRules[kind]
	stripped := ""
	for _, suffix := range rules.suffixes {
		if strings.HasSuffix(canonical, suffix) && len(canonical) > len(suffix) {
			stripped = strings.TrimSuffix(canonical, suffix)
			break
		}
	}
	if stripped == "" {
		for _, prefix := range rules.prefixes {
			if strings.HasPrefix(canonical, prefix) && len(canonical) > len(prefix) {
				stripped = strings.TrimPrefix(canonical, prefix)
				break
			}
		}
	}
	if stripped != "" {
		names = append(names, stripped)
	}

	// crates.io names are commonly published with underscores
	if kind == KindCrates {
		for _, n := range names {
			names = append(names, strings.ReplaceAll(n, "-", "_"))
		}
	}

	return uniqueNames(names)
}

// uniqueNames drops empty and repeated names, keeping first occurrences.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for i, n := range names {
		// the canonical name is kept even when empty
		if (n == "" && i > 0) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
