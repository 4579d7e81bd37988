package sources

import (
	"time"

	"github.com/obentoo/feedstockrot/internal/sources/sourcestest"
)

const testOwner = "conda-forge"

// testEndpoints points every source at the fake registry.
func testEndpoints(reg *sourcestest.Registry, platforms ...string) Endpoints {
	if len(platforms) == 0 {
		platforms = []string{"linux-64", "osx-64"}
	}
	return Endpoints{
		Owner:       testOwner,
		Platforms:   platforms,
		Branches:    []string{"main", "master"},
		RepodataURL: reg.RepodataURL(),
		RecipeURL:   reg.RecipeURL(),
		PyPIURL:     reg.PyPIURL(),
		NpmURL:      reg.NpmURL(),
		CratesURL:   reg.CratesURL(),
	}
}

// testClient returns a single-attempt client bound to the fake registry.
func testClient(reg *sourcestest.Registry) *HTTPClient {
	client := NewHTTPClient()
	client.SetHTTPClient(reg.Client())
	client.SetDelayFunc(func(d time.Duration) {})
	return client
}
