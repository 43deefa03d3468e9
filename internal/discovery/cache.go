package discovery

import (
	"os"
	"sync"
	"time"
)

// Cache memoizes Discover results per (content type, layer set), invalidating
// when any layer root's mtime changes or on an explicit Reset.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	index   *Index
	mtimes  map[string]time.Time
	layers  []Layer
	exclude []string
	pattern string
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*cacheEntry{}}
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cacheEntry{}
}

// Get returns the cached Index for key if still fresh, discovering and
// caching it otherwise. key is caller-supplied and should encode the
// content type plus whatever identifies the active layer set (e.g. the
// active pack list) forming a (layer, pack, content_type) cache key.
func (c *Cache) Get(key, contentType string, layers []Layer, excludeGlobs []string, pattern string) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && !layerRootsChanged(existing.mtimes) {
		return existing.index, nil
	}

	idx, err := Discover(contentType, layers, excludeGlobs, pattern)
	if err != nil {
		return nil, err
	}
	c.entries[key] = &cacheEntry{
		index:   idx,
		mtimes:  snapshotMtimes(layers),
		layers:  layers,
		exclude: excludeGlobs,
		pattern: pattern,
	}
	return idx, nil
}

func snapshotMtimes(layers []Layer) map[string]time.Time {
	out := make(map[string]time.Time, len(layers))
	for _, l := range layers {
		if info, err := os.Stat(l.Root); err == nil {
			out[l.Root] = info.ModTime()
		}
	}
	return out
}

func layerRootsChanged(previous map[string]time.Time) bool {
	for root, mtime := range previous {
		info, err := os.Stat(root)
		if err != nil {
			return true
		}
		if !info.ModTime().Equal(mtime) {
			return true
		}
	}
	return false
}
