package sources

import (
	"context"
	"net/url"
	"sync"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/versions"
)

// Feedstock is the conda-forge view of a package: its versions come from the
// channel's repodata and its recipe points at upstream registries.
type Feedstock struct {
	name      string
	names     []string
	client    *HTTPClient
	index     *IndexCache
	endpoints Endpoints
	lookup    lookup

	recipeMu   sync.Mutex
	recipeDone bool
	recipe     *Recipe
}

// NewFeedstock binds a feedstock source to a package name. The index cache is
// shared by every Feedstock created during the same run.
func NewFeedstock(name string, client *HTTPClient, index *IndexCache, endpoints Endpoints) *Feedstock {
	return &Feedstock{
		name:      name,
		names:     PossibleNames(KindFeedstock, name),
		client:    client,
		index:     index,
		endpoints: endpoints,
	}
}

// Kind returns KindFeedstock.
func (f *Feedstock) Kind() Kind { return KindFeedstock }

// Name returns the canonical package name.
func (f *Feedstock) Name() string { return f.name }

// PossibleNames returns the canonical name and, for "-feedstock" repository
// names, the bare package name.
func (f *Feedstock) PossibleNames() []string {
	return append([]string(nil), f.names...)
}

// Versions returns every version of the first possible name listed on any
// platform of the channel, or nil.
func (f *Feedstock) Versions(ctx context.Context) *versions.Set {
	return f.lookup.resolve(ctx, f.names, func(ctx context.Context, name string) *versions.Set {
		return f.index.Versions(ctx, f.endpoints.Platforms, name)
	})
}

// MatchedName returns the name found in the channel index.
func (f *Feedstock) MatchedName() string {
	return f.lookup.matchedName()
}

// Recipe fetches and parses the feedstock's recipe/meta.yaml. Every possible
// name is tried on every configured branch; the first parseable recipe wins.
// Returns nil when no recipe could be fetched or parsed. The result is cached.
func (f *Feedstock) Recipe(ctx context.Context) *Recipe {
	f.recipeMu.Lock()
	defer f.recipeMu.Unlock()

	if f.recipeDone {
		return f.recipe
	}

	f.recipe = f.fetchRecipe(ctx)
	if ctx.Err() == nil {
		f.recipeDone = true
	}
	return f.recipe
}

func (f *Feedstock) fetchRecipe(ctx context.Context) *Recipe {
	for _, name := range f.names {
		for _, branch := range f.endpoints.Branches {
			recipeURL := expand(f.endpoints.RecipeURL,
				"owner", f.endpoints.Owner,
				"name", url.PathEscape(name),
				"branch", url.PathEscape(branch))

			body, err := f.client.Fetch(ctx, recipeURL)
			if err != nil {
				logger.Debug("feedstock: no recipe for %s on %s: %v", name, branch, err)
				continue
			}

			recipe, err := ParseRecipe(body)
			if err != nil {
				logger.Debug("feedstock: unparseable recipe for %s: %v", name, err)
				return nil
			}
			return recipe
		}
	}
	return nil
}

// RecipeURLs returns the upstream URLs named by the recipe, or an empty list
// when the recipe is missing or unparseable.
func (f *Feedstock) RecipeURLs(ctx context.Context) []string {
	urls := f.Recipe(ctx).URLs()
	if urls == nil {
		return []string{}
	}
	return urls
}
