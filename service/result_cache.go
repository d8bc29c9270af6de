package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/version"
	"github.com/vmihailenco/msgpack/v5"
)

// cacheSchemaVersion is bumped whenever the cached payload changes shape
const cacheSchemaVersion uint16 = 1

// cachePayload is the on-disk form of a cached method result
type cachePayload struct {
	Schema uint16
	Key    string
	Result domain.MethodResult
}

// DiskResultCache stores method results as msgpack files keyed by a digest
// of the method graph and the engine options. Safe for concurrent use.
type DiskResultCache struct {
	mu  sync.RWMutex
	dir string
}

// NewDiskResultCache creates a cache rooted at dir
func NewDiskResultCache(dir string) (*DiskResultCache, error) {
	if dir == "" {
		return nil, domain.NewConfigError("cache directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to create cache directory %s", dir), err)
	}
	return &DiskResultCache{dir: dir}, nil
}

// CacheKey derives the cache key of a method from its document, the engine
// build and the options that influence the result
func CacheKey(m *domain.MethodDocument, req *domain.StructureRequest) (string, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "|engine=%s+%s", version.Version, version.Commit)
	fmt.Fprintf(h, "|schema=%d|passes=%d|verify=%t|loops=%t|sync=%t|condense=%t|labels=%t|ifs=%t|returns=%t|tokens=%t|dot=%t",
		cacheSchemaVersion, req.MaxPasses, req.Verify, req.RefineLoops, req.BuildSynchronized,
		req.CondenseSequences, req.LabelEdges, req.MergeIfs, req.CondenseLoops,
		req.ShowTokens, req.OutputFormat == domain.OutputFormatDOT)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *DiskResultCache) pathFor(key string) string {
	prefix := key
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(c.dir, prefix, key+".mp")
}

// Get reads a cached result. A missing entry is a miss, not an error.
func (c *DiskResultCache) Get(key string) (*domain.MethodResult, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if payload.Schema != cacheSchemaVersion || payload.Key != key {
		return nil, false, nil
	}
	return &payload.Result, true, nil
}

// Put serializes a result and atomically replaces the cache entry
func (c *DiskResultCache) Put(key string, result *domain.MethodResult) error {
	if c == nil || result == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	payload := cachePayload{Schema: cacheSchemaVersion, Key: key, Result: *result}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Clear removes every cache entry
func (c *DiskResultCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
