package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/kaikei/internal/model"
)

type cacheEntry struct {
	expiry     time.Time
	suggestion model.Suggestion
}

// suggestionCache memoizes parsed replies by prompt hash. The prompt embeds
// the tenant's examples, so a new correction produces a new key. Expired
// entries are swept during writes, at most once per ttl.
type suggestionCache struct {
	now       func() time.Time
	entries   map[string]cacheEntry
	lastSweep time.Time
	ttl       time.Duration
	mu        sync.Mutex
}

// newSuggestionCache creates a cache. A non-positive ttl disables it.
func newSuggestionCache(ttl time.Duration) *suggestionCache {
	return &suggestionCache{
		now:       time.Now,
		entries:   make(map[string]cacheEntry),
		lastSweep: time.Now(),
		ttl:       ttl,
	}
}

func promptKey(tenantCode string, messages []Message) string {
	h := sha256.New()
	h.Write([]byte(tenantCode))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *suggestionCache) get(key string) (model.Suggestion, bool) {
	if c.ttl <= 0 {
		return model.Suggestion{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return model.Suggestion{}, false
	}
	if c.now().After(entry.expiry) {
		delete(c.entries, key)
		return model.Suggestion{}, false
	}
	return entry.suggestion, true
}

func (c *suggestionCache) set(key string, suggestion model.Suggestion) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		for k, e := range c.entries {
			if now.After(e.expiry) {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}
	c.entries[key] = cacheEntry{suggestion: suggestion, expiry: now.Add(c.ttl)}
}

func (c *suggestionCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *suggestionCache) clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}
