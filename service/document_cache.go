package service

import (
	"context"
	"runtime"

	"github.com/ludo-technologies/flowstruct/domain"
	"golang.org/x/sync/errgroup"
)

// DocumentEntry holds the decoded document of a single file
type DocumentEntry struct {
	Path     string
	Document *domain.GraphDocument
	Err      error
}

// DocumentCache stores decoded graph documents. After Seal() the cache is
// read-only and safe for concurrent access without locks.
type DocumentCache struct {
	entries map[string]*DocumentEntry
	order   []string
	sealed  bool
}

// NewDocumentCache creates a new empty DocumentCache
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{
		entries: make(map[string]*DocumentEntry),
	}
}

// Put stores an entry. Must be called before Seal().
func (c *DocumentCache) Put(entry *DocumentEntry) {
	if c.sealed || entry == nil {
		return
	}
	if _, exists := c.entries[entry.Path]; !exists {
		c.order = append(c.order, entry.Path)
	}
	c.entries[entry.Path] = entry
}

// Seal marks the cache as read-only
func (c *DocumentCache) Seal() {
	c.sealed = true
}

// Get retrieves a cached entry
func (c *DocumentCache) Get(path string) (*DocumentEntry, bool) {
	e, ok := c.entries[path]
	return e, ok
}

// Entries returns the entries in insertion order
func (c *DocumentCache) Entries() []*DocumentEntry {
	out := make([]*DocumentEntry, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, c.entries[p])
	}
	return out
}

// Len returns the number of entries in the cache
func (c *DocumentCache) Len() int {
	return len(c.entries)
}

// PopulateDocumentCache decodes all files in parallel and returns a sealed
// cache. Entries keep the order of files; decode failures are stored on the
// entry, not returned.
func PopulateDocumentCache(ctx context.Context, reader domain.GraphReader, files []string, concurrency int) (*DocumentCache, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	results := make([]*DocumentEntry, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			doc, err := reader.ReadDocument(path)
			results[i] = &DocumentEntry{Path: path, Document: doc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache := NewDocumentCache()
	for _, r := range results {
		cache.Put(r)
	}
	cache.Seal()
	return cache, nil
}
