package rot

import (
	"context"
	"sync"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/sources"
	"github.com/obentoo/feedstockrot/internal/versions"
)

// Feedstock is what a Package needs from its conda-forge source.
type Feedstock interface {
	sources.Source
	// RecipeURLs returns the upstream URLs named by the recipe, possibly empty
	RecipeURLs(ctx context.Context) []string
}

// ExternalResolver creates the upstream source a recipe URL points at.
type ExternalResolver interface {
	ForURL(name, rawURL string) (*sources.External, bool)
}

// Package ties one logical package to its feedstock and its candidate
// upstream sources.
type Package struct {
	name      string
	feedstock Feedstock
	resolver  ExternalResolver

	mu         sync.Mutex
	discovered bool
	external   []sources.Source
}

// NewPackage creates a Package. resolver may be nil, in which case only
// external sources added with AddExternalSource are consulted.
func NewPackage(name string, feedstock Feedstock, resolver ExternalResolver) *Package {
	return &Package{
		name:      name,
		feedstock: feedstock,
		resolver:  resolver,
	}
}

// Name returns the canonical package name.
func (p *Package) Name() string {
	return p.name
}

// Feedstock returns the package's feedstock source.
func (p *Package) Feedstock() Feedstock {
	return p.feedstock
}

// AddExternalSource appends a candidate upstream source.
func (p *Package) AddExternalSource(src sources.Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = append(p.external, src)
}

// ExternalSources returns the candidate upstream sources in lookup order.
// Discovery must have run for recipe-derived sources to be included.
func (p *Package) ExternalSources() []sources.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sources.Source(nil), p.external...)
}

// Discover attaches one upstream source per registry named by the feedstock
// recipe, in URL order. Later URLs for an attached registry add their project
// name to that source's candidates. It runs once; later calls are no-ops.
func (p *Package) Discover(ctx context.Context) {
	p.mu.Lock()
	if p.discovered {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// Fetch outside the lock: the recipe request may be slow
	urls := p.feedstock.RecipeURLs(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.discovered {
		return
	}
	if ctx.Err() != nil {
		return
	}
	p.discovered = true

	if p.resolver == nil {
		return
	}

	attached := make(map[sources.Kind]*sources.External, len(p.external))
	for _, src := range p.external {
		ext, _ := src.(*sources.External)
		attached[src.Kind()] = ext
	}
	for _, u := range urls {
		ext, ok := p.resolver.ForURL(p.name, u)
		if !ok {
			continue
		}
		if prev, seen := attached[ext.Kind()]; seen {
			// Same registry again: its project name is another candidate
			if prev != nil {
				prev.AddHint(u)
			}
			continue
		}
		attached[ext.Kind()] = ext
		p.external = append(p.external, ext)
		logger.Debug("%s: %s source attached from %s", p.name, ext.Kind(), u)
	}
}

// LatestFeedstockVersion returns the highest version packaged on the channel.
func (p *Package) LatestFeedstockVersion(ctx context.Context) (string, bool) {
	return p.feedstock.Versions(ctx).Highest()
}

// ExternalSource returns the first upstream source with data, or nil. Later
// sources are not consulted once one answers, even if they know newer versions.
func (p *Package) ExternalSource(ctx context.Context) sources.Source {
	p.Discover(ctx)
	for _, src := range p.ExternalSources() {
		if src.Versions(ctx) != nil {
			return src
		}
	}
	return nil
}

// LatestExternalVersion returns the highest version of the first upstream
// source with data.
func (p *Package) LatestExternalVersion(ctx context.Context) (string, bool) {
	src := p.ExternalSource(ctx)
	if src == nil {
		return "", false
	}
	return src.Versions(ctx).Highest()
}

// LatestExternalUpgradeableVersion returns the latest upstream version only
// when it is strictly newer than the latest feedstock version.
func (p *Package) LatestExternalUpgradeableVersion(ctx context.Context) (string, bool) {
	external, ok := p.LatestExternalVersion(ctx)
	if !ok {
		return "", false
	}
	feedstock, ok := p.LatestFeedstockVersion(ctx)
	if !ok {
		return "", false
	}
	if !versions.IsNewer(external, feedstock) {
		return "", false
	}
	return external, true
}
