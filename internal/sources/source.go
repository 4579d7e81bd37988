// Package sources implements the registries feedstockrot cross-references:
// the conda-forge feedstock channel and the upstream package indexes (PyPI,
// npm, crates.io).
//
// Every registry is a Source bound to one package name. A Source tries each of
// its possible names in order and keeps the first Version Set the registry
// returns. Transport failures, 404s and malformed responses are data, not
// errors: they all collapse to an absent (nil) Version Set.
package sources

import (
	"context"
	"sync"

	"github.com/obentoo/feedstockrot/internal/versions"
)

// Kind tags the closed set of registries a Source can query.
type Kind string

const (
	KindFeedstock Kind = "feedstock"
	KindPyPI      Kind = "pypi"
	KindNpm       Kind = "npm"
	KindCrates    Kind = "crates"
)

// String returns the human-readable registry name.
func (k Kind) String() string {
	switch k {
	case KindFeedstock:
		return "conda-forge"
	case KindPyPI:
		return "PyPI"
	case KindNpm:
		return "npm"
	case KindCrates:
		return "crates.io"
	default:
		return string(k)
	}
}

// Source is one registry's view of a package.
type Source interface {
	// Kind returns the registry this source queries
	Kind() Kind
	// Name returns the canonical name of the package the source is bound to
	Name() string
	// PossibleNames returns the ordered name variants tried against the registry
	PossibleNames() []string
	// Versions returns the Version Set of the first possible name with data,
	// or nil if no name yielded data. The result is cached per instance.
	Versions(ctx context.Context) *versions.Set
	// MatchedName returns the possible name that produced Versions, or ""
	MatchedName() string
}

// fetchFunc looks up one candidate name; nil means no data for that name.
type fetchFunc func(ctx context.Context, name string) *versions.Set

// lookup memoizes the first-match search over possible names.
type lookup struct {
	mu      sync.Mutex
	done    bool
	set     *versions.Set
	matched string
}

func (l *lookup) resolve(ctx context.Context, names []string, fetch fetchFunc) *versions.Set {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.set
	}

	for _, name := range names {
		if set := fetch(ctx, name); set != nil {
			l.set = set
			l.matched = name
			break
		}
	}

	// A cancelled run must not pin an absent result
	if ctx.Err() == nil {
		l.done = true
	}
	return l.set
}

func (l *lookup) matchedName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.matched
}
