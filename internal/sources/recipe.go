package sources

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRecipe is returned when a rendered recipe is not a YAML mapping
var ErrInvalidRecipe = errors.New("recipe is not a mapping")

// Recipe holds the upstream URLs found in a feedstock's meta.yaml.
type Recipe struct {
	// Home lists about.home values
	Home []string
	// SourceURLs lists source.url values (mirrors and multi-source recipes included)
	SourceURLs []string
	// GitURLs lists source.git_url values
	GitURLs []string
}

// URLs returns all recipe URLs in lookup order: about.home, source.url, source.git_url.
func (r *Recipe) URLs() []string {
	if r == nil {
		return nil
	}
	urls := make([]string, 0, len(r.Home)+len(r.SourceURLs)+len(r.GitURLs))
	urls = append(urls, r.Home...)
	urls = append(urls, r.SourceURLs...)
	urls = append(urls, r.GitURLs...)
	return urls
}

// ParseRecipe renders a meta.yaml document permissively and extracts its
// upstream URLs.
//
// The document is walked as a node tree rather than decoded into a struct so
// that selector-duplicated keys (url: ... # [unix] / url: ... # [win]) are all
// kept instead of rejected. source may be a mapping or a list of mappings, and
// url may be a string or a list of strings.
func ParseRecipe(content []byte) (*Recipe, error) {
	rendered := RenderPermissive(string(content))

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, ErrInvalidRecipe
	}
	root := doc.Content[0]

	recipe := &Recipe{}
	for _, about := range mappingValues(root, "about") {
		for _, home := range mappingValues(about, "home") {
			recipe.Home = append(recipe.Home, scalarStrings(home)...)
		}
	}

	for _, src := range mappingValues(root, "source") {
		sections := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sections = src.Content
		}
		for _, section := range sections {
			for _, u := range mappingValues(section, "url") {
				recipe.SourceURLs = append(recipe.SourceURLs, scalarStrings(u)...)
			}
			for _, u := range mappingValues(section, "git_url") {
				recipe.GitURLs = append(recipe.GitURLs, scalarStrings(u)...)
			}
		}
	}

	return recipe, nil
}

// mappingValues returns every value stored under key in a mapping node.
func mappingValues(node *yaml.Node, key string) []*yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	var values []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Kind == yaml.ScalarNode && node.Content[i].Value == key {
			values = append(values, node.Content[i+1])
		}
	}
	return values
}

// scalarStrings returns the non-empty string values of a scalar or a sequence of scalars.
func scalarStrings(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "" && node.Tag != "!!null" {
			return []string{node.Value}
		}
	case yaml.SequenceNode:
		var out []string
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode && item.Value != "" && item.Tag != "!!null" {
				out = append(out, item.Value)
			}
		}
		return out
	}
	return nil
}
