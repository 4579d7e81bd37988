package sources

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/obentoo/feedstockrot/internal/sources/sourcestest"
)

func newTestExternal(t *testing.T, reg *sourcestest.Registry, kind Kind, name, hint string) *External {
	t.Helper()
	ext, err := NewExternal(kind, name, hint, testClient(reg), testEndpoints(reg))
	if err != nil {
		t.Fatalf("NewExternal(%s) error = %v", kind, err)
	}
	return ext
}

func TestExternalDecodesRegistries(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	reg.SetPyPI("requests", "2.30.0", "2.31.0")
	reg.SetNpm("left-pad", "1.2.0", "1.3.0")
	reg.SetCrates("serde", "1.0.100", "!1.0.200", "1.0.150")

	tests := []struct {
		kind    Kind
		name    string
		want    []string
		highest string
	}{
		{KindPyPI, "requests", []string{"2.30.0", "2.31.0"}, "2.31.0"},
		{KindNpm, "left-pad", []string{"1.2.0", "1.3.0"}, "1.3.0"},
		{KindCrates, "serde", []string{"1.0.100", "1.0.150"}, "1.0.150"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ext := newTestExternal(t, reg, tt.kind, tt.name, "")
			set := ext.Versions(context.Background())
			if !reflect.DeepEqual(set.Values(), tt.want) {
				t.Errorf("Values() = %v, want %v", set.Values(), tt.want)
			}
			if highest, _ := set.Highest(); highest != tt.highest {
				t.Errorf("Highest() = %q, want %q", highest, tt.highest)
			}
			if ext.MatchedName() != tt.name {
				t.Errorf("MatchedName() = %q, want %q", ext.MatchedName(), tt.name)
			}
		})
	}
}

func TestExternalFallsBackToNextName(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	// python-dateutil is not on the registry; dateutil is
	reg.SetPyPI("dateutil", "2.8.2")

	ext := newTestExternal(t, reg, KindPyPI, "python-dateutil", "")
	if highest, ok := ext.Versions(context.Background()).Highest(); !ok || highest != "2.8.2" {
		t.Errorf("Highest() = %q, %v; want 2.8.2", highest, ok)
	}
	if ext.MatchedName() != "dateutil" {
		t.Errorf("MatchedName() = %q, want dateutil", ext.MatchedName())
	}
	if hits := reg.Hits("/pypi/python-dateutil/json"); hits != 1 {
		t.Errorf("canonical name requested %d times, want 1", hits)
	}
}

func TestExternalUsesHintedName(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	reg.SetPyPI("PyYAML", "6.0.1")

	ext := newTestExternal(t, reg, KindPyPI, "pyyaml", "https://pypi.org/project/PyYAML/")
	if want := []string{"pyyaml", "PyYAML"}; !reflect.DeepEqual(ext.PossibleNames(), want) {
		t.Fatalf("PossibleNames() = %v, want %v", ext.PossibleNames(), want)
	}
	if ext.Versions(context.Background()) == nil || ext.MatchedName() != "PyYAML" {
		t.Errorf("hinted name not used, matched %q", ext.MatchedName())
	}
	if ext.Hint() != "https://pypi.org/project/PyYAML/" {
		t.Errorf("Hint() = %q", ext.Hint())
	}
}

func TestExternalAddHint(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	ext := newTestExternal(t, reg, KindPyPI, "yaml", "https://pypi.org/project/yaml")
	ext.AddHint("https://pypi.org/project/PyYAML/")
	ext.AddHint("https://pypi.org/project/yaml")
	ext.AddHint("https://www.npmjs.com/package/yaml-js")

	if want := []string{"yaml", "PyYAML"}; !reflect.DeepEqual(ext.PossibleNames(), want) {
		t.Errorf("PossibleNames() = %v, want %v", ext.PossibleNames(), want)
	}
	if ext.Hint() != "https://pypi.org/project/yaml" {
		t.Errorf("Hint() = %q, want the first URL", ext.Hint())
	}
}

func TestExternalAbsent(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	reg.SetBody("/npm/broken", "{not json")
	reg.SetBody("/crates/nokey", `{"crate": {"name": "nokey"}}`)
	reg.SetStatus("/pypi/down/json", http.StatusBadGateway)

	tests := []struct {
		kind Kind
		name string
	}{
		{KindPyPI, "missing"},
		{KindPyPI, "down"},
		{KindNpm, "broken"},
		{KindCrates, "nokey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := newTestExternal(t, reg, tt.kind, tt.name, "")
			if set := ext.Versions(context.Background()); set != nil {
				t.Errorf("Versions() = %v, want absent", set.Values())
			}
			if ext.MatchedName() != "" {
				t.Errorf("MatchedName() = %q, want empty", ext.MatchedName())
			}
		})
	}
}

func TestExternalEmptyIsNotAbsent(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	reg.SetPyPI("placeholder")

	ext := newTestExternal(t, reg, KindPyPI, "placeholder", "")
	set := ext.Versions(context.Background())
	if set == nil {
		t.Fatal("Versions() is absent, want empty set")
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
	if _, ok := set.Highest(); ok {
		t.Error("empty set should have no highest version")
	}
}

func TestExternalVersionsCached(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	reg.SetNpm("react", "18.2.0")

	ext := newTestExternal(t, reg, KindNpm, "react", "")
	for i := 0; i < 3; i++ {
		ext.Versions(context.Background())
	}
	if hits := reg.Hits("/npm/react"); hits != 1 {
		t.Errorf("registry queried %d times, want 1", hits)
	}

	missing := newTestExternal(t, reg, KindNpm, "node-nothing", "")
	missing.Versions(context.Background())
	missing.Versions(context.Background())
	if hits := reg.Hits("/npm/node-nothing") + reg.Hits("/npm/nothing"); hits != 2 {
		t.Errorf("absent lookup made %d requests, want 2", hits)
	}
}

func TestNewExternalRejectsFeedstock(t *testing.T) {
	_, err := NewExternal(KindFeedstock, "pkg", "", NewHTTPClient(), DefaultEndpoints())
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("NewExternal(feedstock) error = %v, want ErrUnsupportedKind", err)
	}
}

func TestKindForURL(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		ok   bool
	}{
		{"https://pypi.org/project/foo", KindPyPI, true},
		{"https://pypi.io/packages/source/f/foo/foo-1.0.tar.gz", KindPyPI, true},
		{"https://files.pythonhosted.org/packages/ab/cd/foo-1.0.tar.gz", KindPyPI, true},
		{"https://pypi.python.org/pypi/foo", KindPyPI, true},
		{"https://www.npmjs.com/package/left-pad", KindNpm, true},
		{"https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz", KindNpm, true},
		{"https://crates.io/crates/serde", KindCrates, true},
		{"https://static.crates.io/crates/serde/serde-1.0.0.crate", KindCrates, true},
		{"  https://PyPI.org/project/foo  ", KindPyPI, true},
		{"https://github.com/psf/requests", "", false},
		{"not a url", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		kind, ok := KindForURL(tt.url)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("KindForURL(%q) = %q, %v; want %q, %v", tt.url, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestHintedName(t *testing.T) {
	tests := []struct {
		kind Kind
		url  string
		want string
	}{
		{KindPyPI, "https://pypi.org/project/requests", "requests"},
		{KindPyPI, "https://pypi.org/project/requests/2.31.0/", "requests"},
		{KindPyPI, "https://pypi.python.org/pypi/Jinja2", "Jinja2"},
		{KindPyPI, "https://pypi.io/packages/source/r/requests/requests-2.31.0.tar.gz", "requests"},
		{KindPyPI, "https://files.pythonhosted.org/packages/ab/cd/requests.tar.gz", ""},
		{KindNpm, "https://www.npmjs.com/package/left-pad", "left-pad"},
		{KindNpm, "https://www.npmjs.com/package/@babel/core", "@babel/core"},
		{KindNpm, "https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz", "left-pad"},
		{KindNpm, "https://registry.npmjs.org/@types/node/-/node-20.0.0.tgz", "@types/node"},
		{KindCrates, "https://crates.io/crates/serde", "serde"},
		{KindCrates, "https://static.crates.io/crates/serde/serde-1.0.0.crate", "serde"},
		{KindCrates, "https://pypi.org/project/serde", ""},
		{KindPyPI, "", ""},
	}

	for _, tt := range tests {
		if got := HintedName(tt.kind, tt.url); got != tt.want {
			t.Errorf("HintedName(%s, %q) = %q, want %q", tt.kind, tt.url, got, tt.want)
		}
	}
}

func TestFactoryForURL(t *testing.T) {
	reg := sourcestest.NewRegistry()
	defer reg.Close()

	factory := NewFactory(testClient(reg), testEndpoints(reg))

	ext, ok := factory.ForURL("foo", "https://pypi.org/project/foo")
	if !ok || ext.Kind() != KindPyPI || ext.Name() != "foo" {
		t.Fatalf("ForURL() = %v, %v", ext, ok)
	}
	if _, ok := factory.ForURL("foo", "https://github.com/foo/foo"); ok {
		t.Error("ForURL() should ignore unknown hosts")
	}
	if factory.Feedstock("a").index != factory.Feedstock("b").index {
		t.Error("feedstocks from one factory must share the index cache")
	}
}
