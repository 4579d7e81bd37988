package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/versions"
)

// ErrUnsupportedKind is returned when an external source is requested for a
// registry that is not an upstream index
var ErrUnsupportedKind = errors.New("unsupported external registry")

// registryHosts maps upstream hosts (without "www.") to their registry.
var registryHosts = map[string]Kind{
	"pypi.org":               KindPyPI,
	"pypi.io":                KindPyPI,
	"pypi.python.org":        KindPyPI,
	"files.pythonhosted.org": KindPyPI,
	"npmjs.com":              KindNpm,
	"npmjs.org":              KindNpm,
	"registry.npmjs.org":     KindNpm,
	"crates.io":              KindCrates,
	"static.crates.io":       KindCrates,
}

// decoders turn a registry lookup response into a Version Set.
var decoders = map[Kind]func([]byte) (*versions.Set, error){
	KindPyPI:   decodePyPI,
	KindNpm:    decodeNpm,
	KindCrates: decodeCrates,
}

// External is an upstream registry's view of a package.
type External struct {
	kind     Kind
	name     string
	hint     string
	template string
	client   *HTTPClient
	lookup   lookup

	mu    sync.Mutex
	names []string
}

// NewExternal binds an upstream registry source to a package name. hint is the
// recipe URL that pointed at the registry; the project name it contains, if
// any, is tried after the name variants.
func NewExternal(kind Kind, name, hint string, client *HTTPClient, endpoints Endpoints) (*External, error) {
	if _, ok := decoders[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	names := PossibleNames(kind, name)
	if hinted := HintedName(kind, hint); hinted != "" {
		names = uniqueNames(append(names, hinted))
	}

	return &External{
		kind:     kind,
		name:     name,
		hint:     hint,
		names:    names,
		template: endpoints.registryURL(kind),
		client:   client,
	}, nil
}

// Kind returns the registry this source queries.
func (e *External) Kind() Kind { return e.kind }

// Name returns the canonical package name.
func (e *External) Name() string { return e.name }

// Hint returns the recipe URL that attached this source.
func (e *External) Hint() string { return e.hint }

// PossibleNames returns the names tried against the registry, in order.
func (e *External) PossibleNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.names...)
}

// AddHint appends the project name found in another recipe URL for the same
// registry to the names tried. It has no effect once a lookup has resolved.
func (e *External) AddHint(rawURL string) {
	hinted := HintedName(e.kind, rawURL)
	if hinted == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = uniqueNames(append(e.names, hinted))
}

// Versions queries the registry once per possible name and keeps the first
// answer. Returns nil if no name was found.
func (e *External) Versions(ctx context.Context) *versions.Set {
	return e.lookup.resolve(ctx, e.PossibleNames(), e.fetch)
}

// MatchedName returns the name the registry answered for.
func (e *External) MatchedName() string {
	return e.lookup.matchedName()
}

func (e *External) fetch(ctx context.Context, name string) *versions.Set {
	if name == "" {
		return nil
	}
	lookupURL := expand(e.template, "name", url.PathEscape(name))

	body, err := e.client.Fetch(ctx, lookupURL)
	if err != nil {
		logger.Debug("%s: %s: %v", e.kind, name, err)
		return nil
	}

	set, err := decoders[e.kind](body)
	if err != nil {
		logger.Debug("%s: %s: malformed response: %v", e.kind, name, err)
		return nil
	}
	return set
}

// KindForURL returns the upstream registry a URL points at.
func KindForURL(rawURL string) (Kind, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	kind, ok := registryHosts[host]
	return kind, ok
}

// HintedName extracts the registry project name from an upstream URL, e.g.
// https://pypi.org/project/requests → "requests". Returns "" when the URL does
// not belong to kind or has no recognizable name.
func HintedName(kind Kind, rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if k, ok := KindForURL(rawURL); !ok || k != kind {
		return ""
	}
	u, _ := url.Parse(strings.TrimSpace(rawURL))
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	after := func(marker string) string {
		for i := 0; i+1 < len(segments); i++ {
			if segments[i] == marker {
				return segments[i+1]
			}
		}
		return ""
	}

	switch kind {
	case KindPyPI:
		if name := after("project"); name != "" {
			return name
		}
		if name := after("pypi"); name != "" {
			return name
		}
		// /packages/source/<letter>/<name>/<file>
		if len(segments) >= 4 && segments[0] == "packages" && segments[1] == "source" {
			return segments[3]
		}
	case KindNpm:
		if name := after("package"); name != "" {
			if strings.HasPrefix(name, "@") {
				if scoped := after(name); scoped != "" {
					return name + "/" + scoped
				}
			}
			return name
		}
		if host == "registry.npmjs.org" && len(segments) > 0 {
			if strings.HasPrefix(segments[0], "@") && len(segments) > 1 {
				return segments[0] + "/" + segments[1]
			}
			return segments[0]
		}
	case KindCrates:
		if name := after("crates"); name != "" {
			return name
		}
	}
	return ""
}

// decodePyPI reads the release keys of a PyPI JSON API document.
func decodePyPI(body []byte) (*versions.Set, error) {
	var doc struct {
		Releases map[string]json.RawMessage `json:"releases"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Releases == nil {
		return nil, errors.New("missing releases")
	}
	raw := make([]string, 0, len(doc.Releases))
	for v := range doc.Releases {
		raw = append(raw, v)
	}
	return versions.New(raw...), nil
}

// decodeNpm reads the version keys of an npm packument.
func decodeNpm(body []byte) (*versions.Set, error) {
	var doc struct {
		Versions map[string]json.RawMessage `json:"versions"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Versions == nil {
		return nil, errors.New("missing versions")
	}
	raw := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		raw = append(raw, v)
	}
	return versions.New(raw...), nil
}

// decodeCrates reads the non-yanked versions of a crates.io crate document.
func decodeCrates(body []byte) (*versions.Set, error) {
	var doc struct {
		Versions []struct {
			Num    string `json:"num"`
			Yanked bool   `json:"yanked"`
		} `json:"versions"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Versions == nil {
		return nil, errors.New("missing versions")
	}
	raw := make([]string, 0, len(doc.Versions))
	for _, v := range doc.Versions {
		if !v.Yanked {
			raw = append(raw, v.Num)
		}
	}
	return versions.New(raw...), nil
}
