package speech

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type cachedAudio struct {
	data      []byte
	expiresAt time.Time
}

// Cache holds synthesized audio long enough for the telephony carrier to
// fetch it back through the play endpoint. Entries expire after the TTL.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cachedAudio
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cachedAudio),
	}
}

// Put stores the audio and returns its cache id.
func (c *Cache) Put(audio []byte) string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cachedAudio{data: audio, expiresAt: time.Now().Add(c.ttl)}
	return id
}

// Get returns the audio for the id if it is still cached.
func (c *Cache) Get(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, id)
		return nil, false
	}
	return entry.data, true
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartJanitor evicts expired entries until ctx is done.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evictExpired()
			}
		}
	}()
}

func (c *Cache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}
