// Package capability decorates the LLM, embedding and entity capabilities
// with caching and rate limiting.
package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/datar-psa/rageval/api"
)

// DefaultTTL is how long cached capability answers are kept
const DefaultTTL = time.Hour

// Cache memoizes deterministic capability answers in memory
type Cache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCache creates a cache with the given entry TTL; ttl <= 0 selects DefaultTTL
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Len returns the number of cached entries, expired ones included
func (c *Cache) Len() int { return c.cache.ItemCount() }

// Clear removes all entries
func (c *Cache) Clear() { c.cache.Flush() }

// Wrap returns caps with every non-nil member backed by the cache.
// Structured generation, embeddings and entity lists are cached. Generate
// passes through, since its completions are independent samples.
func (c *Cache) Wrap(caps api.Capabilities) api.Capabilities {
	if caps.LLM != nil {
		caps.LLM = &cachedLLM{next: caps.LLM, c: c}
	}
	if caps.Embedder != nil {
		caps.Embedder = &cachedEmbedder{next: caps.Embedder, c: c}
	}
	if caps.Entities != nil {
		caps.Entities = &cachedEntities{next: caps.Entities, c: c}
	}
	return caps
}

// key hashes the call kind and its inputs
func key(kind string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return "rageval:v1:" + kind + ":" + hex.EncodeToString(h.Sum(nil))
}

type cachedLLM struct {
	next api.LLMGenerator
	c    *Cache
}

func (l *cachedLLM) Generate(ctx context.Context, prompt string, n int) ([]string, error) {
	return l.next.Generate(ctx, prompt, n)
}

func (l *cachedLLM) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	rawSchema, err := json.Marshal(schema)
	if err != nil {
		return l.next.StructuredGenerate(ctx, prompt, schema)
	}
	k := key("structured", prompt, string(rawSchema))
	if v, ok := l.c.cache.Get(k); ok {
		return v.(map[string]interface{}), nil
	}
	out, err := l.next.StructuredGenerate(ctx, prompt, schema)
	if err != nil {
		return nil, err
	}
	l.c.cache.Set(k, out, l.c.ttl)
	return out, nil
}

type cachedEmbedder struct {
	next api.Embedder
	c    *Cache
}

func (e *cachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	k := key("embed", text)
	if v, ok := e.c.cache.Get(k); ok {
		return v.([]float64), nil
	}
	out, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.c.cache.Set(k, out, e.c.ttl)
	return out, nil
}

type cachedEntities struct {
	next api.EntityExtractor
	c    *Cache
}

func (e *cachedEntities) Entities(ctx context.Context, text string) ([]string, error) {
	k := key("entities", text)
	if v, ok := e.c.cache.Get(k); ok {
		return v.([]string), nil
	}
	out, err := e.next.Entities(ctx, text)
	if err != nil {
		return nil, err
	}
	e.c.cache.Set(k, out, e.c.ttl)
	return out, nil
}
