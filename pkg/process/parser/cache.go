package parser

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/process"
)

// DefaultCacheSize is the number of distinct process lists a Parser keeps.
const DefaultCacheSize = 1024

// Config holds configuration options for a Parser.
type Config struct {
	// CacheSize bounds the result cache. Zero selects DefaultCacheSize and a
	// negative value disables caching.
	CacheSize int

	// Logger receives cache misses and parse failures. Nil disables logging.
	Logger *zap.Logger
}

type cacheKey struct {
	kind  process.Kind
	input string
}

// Parser parses process lists and caches the results by kind and input.
// Names in a cached list are checked against the resolver again on every
// hit, so a process unregistered after the first parse is still reported.
// Parser is safe for concurrent use.
type Parser struct {
	resolver Resolver
	logger   *zap.Logger
	size     int

	mu    sync.RWMutex
	cache map[cacheKey][]process.Descriptor

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a parser that resolves names against r. A nil resolver is a
// configuration error.
func New(r Resolver, config Config) (*Parser, error) {
	if err := validation.ValidateNotNil("parser", "resolver", r); err != nil {
		return nil, err
	}
	size := config.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		resolver: r,
		logger:   logger,
		size:     size,
		cache:    make(map[cacheKey][]process.Descriptor),
	}, nil
}

// Parse is like the package-level Parse but serves repeated inputs from the
// cache. The returned slice is never shared with the cache or other callers.
func (p *Parser) Parse(kind process.Kind, input string) ([]process.Descriptor, error) {
	k := cacheKey{kind: kind, input: input}

	p.mu.RLock()
	cached, ok := p.cache[k]
	p.mu.RUnlock()

	if ok {
		p.hits.Add(1)
		for _, d := range cached {
			if !p.resolver.Exists(kind, d.Name) {
				return nil, &tferrors.NoSuchProcessError{Kind: kind.String(), Name: d.Name}
			}
		}
		return clone(cached), nil
	}

	p.misses.Add(1)
	ds, err := Parse(kind, input, p.resolver)
	if err != nil {
		p.logger.Debug("process list rejected", zap.String("input", input), zap.Error(err))
		return nil, err
	}

	if p.size > 0 {
		p.mu.Lock()
		if len(p.cache) < p.size {
			p.cache[k] = clone(ds)
		}
		p.mu.Unlock()
	}
	return ds, nil
}

// Stats returns the number of cache hits and misses so far.
func (p *Parser) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

// Len returns the number of cached process lists.
func (p *Parser) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// Reset empties the cache.
func (p *Parser) Reset() {
	p.mu.Lock()
	p.cache = make(map[cacheKey][]process.Descriptor)
	p.mu.Unlock()
}

func clone(ds []process.Descriptor) []process.Descriptor {
	out := make([]process.Descriptor, len(ds))
	for i, d := range ds {
		out[i] = d.Clone()
	}
	return out
}
