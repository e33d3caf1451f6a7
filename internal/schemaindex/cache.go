// Package schemaindex caches per-database table embeddings.
package schemaindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/metrics"
	"nl2sql-grounding/internal/schema"
)

// DefaultMaxEntries bounds the cache when Options.MaxEntries is not set.
const DefaultMaxEntries = 10

// ErrEmbedding marks failures of the embedding service during a build.
var ErrEmbedding = errors.New("embedding table descriptions failed")

// SnapshotBuilder produces the table descriptors of a database.
type SnapshotBuilder interface {
	BuildSchema(ctx context.Context, identity string) ([]schema.Table, error)
}

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Entry is the cached index of one database. Entries are never mutated after
// they are built; callers must not modify the slices.
type Entry struct {
	Identity     string
	Dialect      schema.Dialect
	Tables       []schema.Table
	Descriptions []string
	// Vectors[i] is the embedding of Descriptions[i].
	Vectors   [][]float32
	CreatedAt time.Time
}

// Options configures a Cache.
type Options struct {
	// MaxEntries is the number of databases kept; the oldest-inserted entry is
	// evicted first. Defaults to DefaultMaxEntries.
	MaxEntries int
	// TTL expires entries after the given age. Zero keeps entries until they
	// are evicted or cleared.
	TTL time.Duration
}

// Stats describes the cache contents.
type Stats struct {
	EntryCount int      `json:"entry_count"`
	MaxEntries int      `json:"max_entries"`
	Identities []string `json:"identities"`
}

// Cache maps a connection string to its schema index. Builds are single-flight
// per identity; different identities build concurrently.
type Cache struct {
	builder    SnapshotBuilder
	embedder   Embedder
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string // insertion order, oldest first

	// building marks identities with a build in flight; true once the
	// identity has been cleared since its build started.
	building map[string]bool

	group singleflight.Group
}

// New creates a Cache that builds entries with builder and embedder.
func New(builder SnapshotBuilder, embedder Embedder, opts Options) *Cache {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		builder:    builder,
		embedder:   embedder,
		maxEntries: maxEntries,
		ttl:        opts.TTL,
		now:        time.Now,
		entries:    make(map[string]*Entry),
		building:   make(map[string]bool),
	}
}

// GetOrBuild returns the entry for identity, building it on a miss. Concurrent
// callers for the same identity share one build. A caller whose ctx ends stops
// waiting, but the shared build keeps running for the others.
func (c *Cache) GetOrBuild(ctx context.Context, identity string) (*Entry, error) {
	if e, ok := c.lookup(identity); ok {
		metrics.ObserveSchemaCacheHit()
		return e, nil
	}
	metrics.ObserveSchemaCacheMiss()

	ch := c.group.DoChan(identity, func() (any, error) {
		// a flight that finished after our lookup already cached the entry
		if e, ok := c.lookup(identity); ok {
			return e, nil
		}
		c.mu.Lock()
		c.building[identity] = false
		c.mu.Unlock()

		start := time.Now()
		e, err := c.build(context.WithoutCancel(ctx), identity)
		metrics.ObserveSchemaIndexBuild(time.Since(start), err)
		if err != nil {
			c.mu.Lock()
			delete(c.building, identity)
			c.mu.Unlock()
			return nil, err
		}
		c.insert(ctx, e)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// Clear removes the entry for identity if present. A build of identity that
// is in flight still answers its callers but is not stored. Other identities
// are unaffected.
func (c *Cache) Clear(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.building[identity]; ok {
		c.building[identity] = true
	}
	if _, ok := c.entries[identity]; !ok {
		return
	}
	delete(c.entries, identity)
	c.removeFromOrder(identity)
	metrics.SetSchemaCacheEntries(len(c.entries))
}

// ClearAll empties the cache. No build in flight is stored.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for identity := range c.building {
		c.building[identity] = true
	}
	c.entries = make(map[string]*Entry)
	c.order = nil
	metrics.SetSchemaCacheEntries(0)
}

// Stats returns the entry count and cached identities, oldest first.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	identities := make([]string, len(c.order))
	copy(identities, c.order)
	return Stats{
		EntryCount: len(c.entries),
		MaxEntries: c.maxEntries,
		Identities: identities,
	}
}

func (c *Cache) lookup(identity string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[identity]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.CreatedAt) >= c.ttl {
		return nil, false
	}
	return e, true
}

func (c *Cache) build(ctx context.Context, identity string) (*Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	tables, err := c.builder.BuildSchema(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("build schema snapshot: %w", err)
	}

	descriptions := make([]string, len(tables))
	for i, t := range tables {
		descriptions[i] = schema.Describe(t)
	}

	var vectors [][]float32
	if len(descriptions) > 0 {
		vectors, err = c.embedder.EmbedTexts(ctx, descriptions)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		if len(vectors) != len(descriptions) {
			return nil, fmt.Errorf("%w: got %d vectors for %d tables", ErrEmbedding, len(vectors), len(descriptions))
		}
	}

	logger.InfoContext(ctx, "schema index built",
		"identity", schema.Redact(identity),
		"tables", len(tables),
	)

	return &Entry{
		Identity:     identity,
		Dialect:      schema.DetectDialect(identity),
		Tables:       tables,
		Descriptions: descriptions,
		Vectors:      vectors,
		CreatedAt:    c.now(),
	}, nil
}

// insert stores e unless its identity was cleared since the build started,
// then evicts the oldest entries beyond the bound.
func (c *Cache) insert(ctx context.Context, e *Entry) {
	logger := contextutil.LoggerFromContext(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := c.building[e.Identity]
	delete(c.building, e.Identity)
	if cleared {
		logger.DebugContext(ctx, "cache cleared during build; entry not stored", "identity", schema.Redact(e.Identity))
		return
	}

	if _, ok := c.entries[e.Identity]; ok {
		c.removeFromOrder(e.Identity)
	}
	c.entries[e.Identity] = e
	c.order = append(c.order, e.Identity)

	for len(c.entries) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		metrics.ObserveSchemaCacheEviction()
		logger.InfoContext(ctx, "schema index evicted", "identity", schema.Redact(oldest))
	}
	metrics.SetSchemaCacheEntries(len(c.entries))
}

func (c *Cache) removeFromOrder(identity string) {
	for i, id := range c.order {
		if id == identity {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
