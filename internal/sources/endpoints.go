package sources

import "strings"

// Default registry endpoints. Placeholders: {owner}, {platform}, {name}, {branch}.
const (
	DefaultOwner       = "conda-forge"
	DefaultRepodataURL = "https://conda.anaconda.org/{owner}/{platform}/repodata.json"
	DefaultRecipeURL   = "https://raw.githubusercontent.com/{owner}/{name}-feedstock/{branch}/recipe/meta.yaml"
	DefaultPyPIURL     = "https://pypi.org/pypi/{name}/json"
	DefaultNpmURL      = "https://registry.npmjs.org/{name}"
	DefaultCratesURL   = "https://crates.io/api/v1/crates/{name}"
)

// DefaultPlatforms are the channel subdirectories aggregated for feedstock versions.
var DefaultPlatforms = []string{"linux-64", "osx-64", "win-64"}

// DefaultBranches are the feedstock branches tried, in order, for recipes.
var DefaultBranches = []string{"main", "master"}

// Endpoints holds the URL templates and channel layout used by every source.
type Endpoints struct {
	Owner       string
	Platforms   []string
	Branches    []string
	RepodataURL string
	RecipeURL   string
	PyPIURL     string
	NpmURL      string
	CratesURL   string
}

// DefaultEndpoints returns the public conda-forge and registry endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Owner:       DefaultOwner,
		Platforms:   append([]string(nil), DefaultPlatforms...),
		Branches:    append([]string(nil), DefaultBranches...),
		RepodataURL: DefaultRepodataURL,
		RecipeURL:   DefaultRecipeURL,
		PyPIURL:     DefaultPyPIURL,
		NpmURL:      DefaultNpmURL,
		CratesURL:   DefaultCratesURL,
	}
}

// registryURL returns the lookup template for an external registry.
func (e Endpoints) registryURL(kind Kind) string {
	switch kind {
	case KindPyPI:
		return e.PyPIURL
	case KindNpm:
		return e.NpmURL
	case KindCrates:
		return e.CratesURL
	}
	return ""
}

// expand fills a URL template. Values are substituted verbatim; callers
// escape path segments beforehand.
func expand(template string, pairs ...string) string {
	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}
