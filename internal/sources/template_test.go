package sources

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRenderPermissive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "set literal substituted",
			input:    "{% set name = \"foo\" %}url: https://pypi.org/project/{{ name }}",
			expected: "url: https://pypi.org/project/foo",
		},
		{
			name:     "single quoted set",
			input:    "{% set version = '1.2.3' %}v{{ version }}",
			expected: "v1.2.3",
		},
		{
			name:     "set from another variable",
			input:    "{% set a = \"x\" %}{% set b = a %}{{ b }}",
			expected: "x",
		},
		{
			name:     "whitespace control markers",
			input:    "{%- set name = \"foo\" -%}{{- name -}}",
			expected: "foo",
		},
		{
			name:     "undefined variable becomes placeholder",
			input:    "sha256: {{ sha256 }}",
			expected: "sha256: sha256",
		},
		{
			name:     "undefined expression keeps its text",
			input:    "- {{ compiler('c') }}",
			expected: "- compiler('c')",
		},
		{
			name:     "filters are ignored",
			input:    "{% set name = \"Foo\" %}{{ name|lower }}",
			expected: "Foo",
		},
		{
			name:     "subscript placeholder",
			input:    "/{{ name[0] }}/",
			expected: "/name[0]/",
		},
		{
			name:     "comments and statements dropped",
			input:    "a{# note #}b{% if win %}c{% endif %}",
			expected: "abc",
		},
		{
			name:     "unterminated expression left as is",
			input:    "home: {{ name",
			expected: "home: {{ name",
		},
		{
			name:     "plain braces untouched",
			input:    "{a: 1}",
			expected: "{a: 1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderPermissive(tt.input); got != tt.expected {
				t.Errorf("RenderPermissive() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPropertyRenderPermissive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Fragments biased towards template delimiters
	fragment := gen.OneGenOf(
		gen.AlphaString(),
		gen.OneConstOf("{{", "}}", "{%", "%}", "{#", "#}", "{", "}", " set x = \"y\" ", "|", "-"),
	)

	properties.Property("never panics and is deterministic", prop.ForAll(
		func(parts []string) bool {
			input := strings.Join(parts, "")
			return RenderPermissive(input) == RenderPermissive(input)
		},
		gen.SliceOf(fragment),
	))

	properties.Property("text without markup is unchanged", prop.ForAll(
		func(s string) bool {
			return RenderPermissive(s) == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
