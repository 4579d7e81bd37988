package sources

// Factory builds the sources for one run. It owns the run's IndexCache, so
// every Feedstock it creates shares a single download per platform.
type Factory struct {
	client    *HTTPClient
	endpoints Endpoints
	index     *IndexCache
}

// NewFactory creates a factory with a fresh IndexCache.
func NewFactory(client *HTTPClient, endpoints Endpoints) *Factory {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Factory{
		client:    client,
		endpoints: endpoints,
		index:     NewIndexCache(client, endpoints),
	}
}

// Endpoints returns the endpoints sources are created with.
func (f *Factory) Endpoints() Endpoints {
	return f.endpoints
}

// Feedstock creates the feedstock source for a package.
func (f *Factory) Feedstock(name string) *Feedstock {
	return NewFeedstock(name, f.client, f.index, f.endpoints)
}

// External creates an upstream source of the given kind for a package.
func (f *Factory) External(kind Kind, name, hint string) (*External, error) {
	return NewExternal(kind, name, hint, f.client, f.endpoints)
}

// ForURL creates the upstream source a recipe URL points at. Returns false
// when the URL's host is not a known registry.
func (f *Factory) ForURL(name, rawURL string) (*External, bool) {
	kind, ok := KindForURL(rawURL)
	if !ok {
		return nil, false
	}
	ext, err := f.External(kind, name, rawURL)
	if err != nil {
		return nil, false
	}
	return ext, true
}
