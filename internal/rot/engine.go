// Package rot reconciles conda-forge feedstocks with their upstream releases.
//
// An Engine collects package names, builds one Package per name and checks
// each against the feedstock channel and the upstream registries named by its
// recipe:
//
//	engine := rot.NewEngine(sources.NewFactory(client, endpoints))
//	engine.Add("requests", "numpy")
//	report := engine.Report(ctx)
package rot

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/sources"
)

// Engine holds the ordered, de-duplicated packages of one run.
type Engine struct {
	factory *sources.Factory

	mu       sync.Mutex
	packages []*Package
	byName   map[string]*Package
}

// NewEngine creates an engine. Every Package shares the factory's index cache.
func NewEngine(factory *sources.Factory) *Engine {
	return &Engine{
		factory: factory,
		byName:  make(map[string]*Package),
	}
}

// Add creates a Package for each name not seen before, in order.
// Blank names are ignored.
func (e *Engine) Add(names ...string) {
	e.add("argument", names)
}

// AddRepositories is Add for names coming from a repository listing.
func (e *Engine) AddRepositories(names ...string) {
	e.add("repository", names)
}

func (e *Engine) add(origin string, names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := e.byName[name]; exists {
			logger.Debug("skipping duplicate %s package %s", origin, name)
			continue
		}
		pkg := NewPackage(name, e.factory.Feedstock(name), e.factory)
		e.packages = append(e.packages, pkg)
		e.byName[name] = pkg
		logger.Debug("added %s package %s", origin, name)
	}
}

// Packages returns the packages in insertion order.
func (e *Engine) Packages() []*Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Package(nil), e.packages...)
}

// Package returns the package with the given name.
func (e *Engine) Package(name string) (*Package, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pkg, ok := e.byName[name]
	return pkg, ok
}

// Resolve performs every package's lookups, up to jobs at a time. Lookup
// failures are recorded as absent data; only context errors are returned.
func (e *Engine) Resolve(ctx context.Context, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, pkg := range e.Packages() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logger.Debug("checking %s", pkg.Name())
			pkg.Classify(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Report groups the packages' results by status, in insertion order.
func (e *Engine) Report(ctx context.Context) map[Status][]Result {
	report := make(map[Status][]Result)
	for _, pkg := range e.Packages() {
		r := pkg.Result(ctx)
		report[r.Status] = append(report[r.Status], r)
	}
	return report
}
