package rot

import (
	"context"
	"time"

	"github.com/obentoo/feedstockrot/internal/sources"
	"github.com/obentoo/feedstockrot/internal/sources/sourcestest"
	"github.com/obentoo/feedstockrot/internal/versions"
)

const testOwner = "conda-forge"

var testPlatforms = []string{"linux-64", "osx-64"}

// newTestFactory returns a factory whose sources all query reg.
func newTestFactory(reg *sourcestest.Registry) *sources.Factory {
	client := sources.NewHTTPClient()
	client.SetHTTPClient(reg.Client())
	client.SetDelayFunc(func(d time.Duration) {})

	return sources.NewFactory(client, sources.Endpoints{
		Owner:       testOwner,
		Platforms:   testPlatforms,
		Branches:    []string{"main", "master"},
		RepodataURL: reg.RepodataURL(),
		RecipeURL:   reg.RecipeURL(),
		PyPIURL:     reg.PyPIURL(),
		NpmURL:      reg.NpmURL(),
		CratesURL:   reg.CratesURL(),
	})
}

// stubSource is an in-memory Source; a nil versions field means absent.
type stubSource struct {
	kind     sources.Kind
	name     string
	versions []string
	absent   bool
	urls     []string
	calls    int
}

func newStub(kind sources.Kind, name string, vs ...string) *stubSource {
	return &stubSource{kind: kind, name: name, versions: vs}
}

func absentStub(kind sources.Kind, name string) *stubSource {
	return &stubSource{kind: kind, name: name, absent: true}
}

func (s *stubSource) Kind() sources.Kind      { return s.kind }
func (s *stubSource) Name() string            { return s.name }
func (s *stubSource) PossibleNames() []string { return []string{s.name} }

func (s *stubSource) Versions(ctx context.Context) *versions.Set {
	s.calls++
	if s.absent {
		return nil
	}
	return versions.New(s.versions...)
}

func (s *stubSource) MatchedName() string {
	if s.absent {
		return ""
	}
	return s.name
}

func (s *stubSource) RecipeURLs(ctx context.Context) []string {
	return append([]string{}, s.urls...)
}
