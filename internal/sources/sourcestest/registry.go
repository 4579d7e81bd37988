// Package sourcestest provides an in-process fake of the conda channel,
// feedstock recipes and upstream registries for tests.
package sourcestest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Entry is one repodata package record.
type Entry struct {
	Name    string
	Version string
}

// Registry serves every endpoint feedstockrot queries:
//
//	/conda/{owner}/{platform}/repodata.json
//	/recipes/{owner}/{name}-feedstock/{branch}/recipe/meta.yaml
//	/pypi/{name}/json
//	/npm/{name}
//	/crates/{name}
//
// Unknown paths answer 404. Every request path is counted.
type Registry struct {
	server *httptest.Server

	mu      sync.Mutex
	bodies  map[string]string
	status  map[string]int
	hits    map[string]int
	entries map[string][]Entry
}

// NewRegistry starts a fake registry. Call Close when done.
func NewRegistry() *Registry {
	r := &Registry{
		bodies:  make(map[string]string),
		status:  make(map[string]int),
		hits:    make(map[string]int),
		entries: make(map[string][]Entry),
	}
	r.server = httptest.NewServer(http.HandlerFunc(r.serve))
	return r
}

// Close shuts the server down.
func (r *Registry) Close() {
	r.server.Close()
}

// URL returns the server's base URL.
func (r *Registry) URL() string {
	return r.server.URL
}

// Client returns an HTTP client for the server.
func (r *Registry) Client() *http.Client {
	return r.server.Client()
}

// RepodataURL returns the repodata template ({owner}, {platform}).
func (r *Registry) RepodataURL() string {
	return r.server.URL + "/conda/{owner}/{platform}/repodata.json"
}

// RecipeURL returns the recipe template ({owner}, {name}, {branch}).
func (r *Registry) RecipeURL() string {
	return r.server.URL + "/recipes/{owner}/{name}-feedstock/{branch}/recipe/meta.yaml"
}

// PyPIURL returns the PyPI lookup template ({name}).
func (r *Registry) PyPIURL() string { return r.server.URL + "/pypi/{name}/json" }

// NpmURL returns the npm lookup template ({name}).
func (r *Registry) NpmURL() string { return r.server.URL + "/npm/{name}" }

// CratesURL returns the crates.io lookup template ({name}).
func (r *Registry) CratesURL() string { return r.server.URL + "/crates/{name}" }

// RepodataPath returns the request path of a platform's repodata.
func RepodataPath(owner, platform string) string {
	return fmt.Sprintf("/conda/%s/%s/repodata.json", owner, platform)
}

// RecipePath returns the request path of a feedstock recipe.
func RecipePath(owner, name, branch string) string {
	return fmt.Sprintf("/recipes/%s/%s-feedstock/%s/recipe/meta.yaml", owner, name, branch)
}

// AddRepodata appends package records to a platform's repodata, alternating
// between the "packages" and "packages.conda" maps.
func (r *Registry) AddRepodata(owner, platform string, entries ...Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := RepodataPath(owner, platform)
	r.entries[path] = append(r.entries[path], entries...)

	packages := map[string]map[string]string{}
	conda := map[string]map[string]string{}
	for i, e := range r.entries[path] {
		record := map[string]string{"name": e.Name, "version": e.Version, "build": "py_0"}
		if i%2 == 0 {
			packages[fmt.Sprintf("%s-%s-py_0.tar.bz2", e.Name, e.Version)] = record
		} else {
			conda[fmt.Sprintf("%s-%s-py_0.conda", e.Name, e.Version)] = record
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"info":           map[string]string{"subdir": platform},
		"packages":       packages,
		"packages.conda": conda,
	})
	r.bodies[path] = string(body)
}

// SetRecipe serves a recipe for a feedstock branch.
func (r *Registry) SetRecipe(owner, name, branch, body string) {
	r.SetBody(RecipePath(owner, name, branch), body)
}

// SetPyPI serves a PyPI JSON document listing versions as releases.
func (r *Registry) SetPyPI(name string, versions ...string) {
	releases := make(map[string][]interface{}, len(versions))
	for _, v := range versions {
		releases[v] = []interface{}{}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"info":     map[string]string{"name": name},
		"releases": releases,
	})
	r.SetBody("/pypi/"+name+"/json", string(body))
}

// SetNpm serves an npm packument listing versions.
func (r *Registry) SetNpm(name string, versions ...string) {
	vs := make(map[string]interface{}, len(versions))
	for _, v := range versions {
		vs[v] = map[string]string{"name": name, "version": v}
	}
	body, _ := json.Marshal(map[string]interface{}{"name": name, "versions": vs})
	r.SetBody("/npm/"+name, string(body))
}

// SetCrates serves a crates.io crate document; versions prefixed with "!" are yanked.
func (r *Registry) SetCrates(name string, versions ...string) {
	vs := make([]map[string]interface{}, 0, len(versions))
	for _, v := range versions {
		yanked := strings.HasPrefix(v, "!")
		vs = append(vs, map[string]interface{}{"num": strings.TrimPrefix(v, "!"), "yanked": yanked})
	}
	body, _ := json.Marshal(map[string]interface{}{"crate": map[string]string{"name": name}, "versions": vs})
	r.SetBody("/crates/"+name, string(body))
}

// SetBody serves a raw 200 body at path.
func (r *Registry) SetBody(path, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[path] = body
	delete(r.status, path)
}

// SetStatus makes path answer with a bare status code.
func (r *Registry) SetStatus(path string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[path] = status
}

// Hits returns how many times path was requested.
func (r *Registry) Hits(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[path]
}

// TotalHits returns the number of requests served.
func (r *Registry) TotalHits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.hits {
		total += n
	}
	return total
}

func (r *Registry) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	path := req.URL.Path
	r.hits[path]++
	status, hasStatus := r.status[path]
	body, hasBody := r.bodies[path]
	r.mu.Unlock()

	switch {
	case hasStatus:
		w.WriteHeader(status)
	case hasBody:
		w.Write([]byte(body))
	default:
		http.NotFound(w, req)
	}
}
