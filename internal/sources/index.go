package sources

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/obentoo/feedstockrot/internal/common/logger"
	"github.com/obentoo/feedstockrot/internal/versions"
)

// repodataEntry is the subset of a repodata package record we read.
type repodataEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// repodata is a channel's per-platform aggregate index.
//
//	{
//	    "packages":       {"<file>.tar.bz2": {"name": "", "version": "", ...}},
//	    "packages.conda": {"<file>.conda":   {"name": "", "version": "", ...}}
//	}
type repodata struct {
	Packages      map[string]repodataEntry `json:"packages"`
	PackagesConda map[string]repodataEntry `json:"packages.conda"`
}

// platformIndex maps package names to every version published for one platform.
type platformIndex map[string][]string

// IndexCache holds the feedstock channel's repodata, fetched at most once per
// platform. It is constructed once per run and shared by every Feedstock
// source; concurrent first accesses collapse onto a single download.
type IndexCache struct {
	client    *HTTPClient
	endpoints Endpoints

	mu sync.RWMutex
	// platforms holds a nil index for platforms that failed to load
	platforms map[string]platformIndex
	group     singleflight.Group
}

// NewIndexCache creates an empty cache for the channel described by endpoints.
func NewIndexCache(client *HTTPClient, endpoints Endpoints) *IndexCache {
	return &IndexCache{
		client:    client,
		endpoints: endpoints,
		platforms: make(map[string]platformIndex),
	}
}

// platform returns the index for a platform, fetching it on first use.
// A nil index means the platform contributes no data. The shared download is
// detached from the caller that started it, so a caller that gives up does
// not fail the platform for the others waiting on it.
func (c *IndexCache) platform(ctx context.Context, platform string) platformIndex {
	c.mu.RLock()
	idx, ok := c.platforms[platform]
	c.mu.RUnlock()
	if ok {
		return idx
	}
	if ctx.Err() != nil {
		return nil
	}

	ch := c.group.DoChan(platform, func() (interface{}, error) {
		c.mu.RLock()
		idx, ok := c.platforms[platform]
		c.mu.RUnlock()
		if ok {
			return idx, nil
		}

		// Bounded by the client's request timeout
		idx = c.fetch(context.WithoutCancel(ctx), platform)

		c.mu.Lock()
		c.platforms[platform] = idx
		c.mu.Unlock()
		return idx, nil
	})

	select {
	case res := <-ch:
		return res.Val.(platformIndex)
	case <-ctx.Done():
		return nil
	}
}

// fetch downloads and indexes one platform's repodata.
func (c *IndexCache) fetch(ctx context.Context, platform string) platformIndex {
	url := expand(c.endpoints.RepodataURL, "owner", c.endpoints.Owner, "platform", platform)
	logger.Debug("feedstock: fetching repodata for %s", platform)

	body, err := c.client.Fetch(ctx, url)
	if err != nil {
		logger.Debug("feedstock: repodata for %s unavailable: %v", platform, err)
		return nil
	}

	var data repodata
	if err := json.Unmarshal(body, &data); err != nil {
		logger.Debug("feedstock: repodata for %s is malformed: %v", platform, err)
		return nil
	}

	idx := make(platformIndex)
	for _, entries := range []map[string]repodataEntry{data.Packages, data.PackagesConda} {
		for _, entry := range entries {
			if entry.Name == "" || entry.Version == "" {
				continue
			}
			idx[entry.Name] = append(idx[entry.Name], entry.Version)
		}
	}
	logger.Debug("feedstock: indexed %d packages for %s", len(idx), platform)
	return idx
}

// Versions aggregates every version of name across platforms.
// Returns nil when no platform lists the name.
func (c *IndexCache) Versions(ctx context.Context, platforms []string, name string) *versions.Set {
	var found []string
	for _, platform := range platforms {
		idx := c.platform(ctx, platform)
		if idx == nil {
			continue
		}
		found = append(found, idx[name]...)
	}
	if len(found) == 0 {
		return nil
	}
	return versions.New(found...)
}
