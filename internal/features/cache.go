package features

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"zrcbench/internal/evalerr"
)

type cacheKey struct {
	filename string
	category string
}

// PooledCache memoizes pooled vectors per (filename, category) for the
// lifetime of one evaluation call. Items referenced by many pairs are read
// from disk exactly once. Safe for concurrent use by worker pools.
type PooledCache struct {
	root    string
	pooling Pooling

	mu      sync.Mutex
	entries map[cacheKey][]float64
	loads   int
}

// NewPooledCache creates a cache rooted at a submission directory. Items are
// resolved as <root>/<category>/<filename>.txt.
func NewPooledCache(root string, pooling Pooling) *PooledCache {
	return &PooledCache{
		root:    root,
		pooling: pooling,
		entries: make(map[cacheKey][]float64),
	}
}

// Pooled returns the pooled vector for an item, loading and reducing the
// matrix on first use.
func (c *PooledCache) Pooled(filename, category string) ([]float64, error) {
	key := cacheKey{filename, category}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v, nil
	}

	path := filepath.Join(c.root, category, filename+".txt")
	m, err := LoadMatrix(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &evalerr.EntryMissingError{Source: filename, Expected: path}
		}
		return nil, err
	}
	c.loads++

	v, err := c.pooling.Apply(m)
	if err != nil {
		return nil, err
	}
	c.entries[key] = v
	return v, nil
}

// Loads reports how many matrices were read from disk. Used by tests to
// assert the single-read property.
func (c *PooledCache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

// MatrixCache memoizes raw matrices by path for the lifetime of one
// evaluation call. The phonetic evaluator uses it because many tokens cut
// windows from the same feature file.
type MatrixCache struct {
	mu      sync.Mutex
	entries map[string]*Matrix
	loads   int
}

// NewMatrixCache creates an empty matrix cache.
func NewMatrixCache() *MatrixCache {
	return &MatrixCache{entries: make(map[string]*Matrix)}
}

// Load returns the matrix at path, reading it at most once.
func (c *MatrixCache) Load(path string) (*Matrix, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.entries[path]; ok {
		return m, nil
	}
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.entries[path] = m
	return m, nil
}

// Loads reports how many files were read from disk.
func (c *MatrixCache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
