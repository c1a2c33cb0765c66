// internal/crawler/bonescache.go
package crawler

import "github.com/alkemir/jscrawl/internal/dom"

// bonesCache memoizes the structural-fingerprint extraction, which is by far
// the most expensive pure computation in the loop. The loop only ever needs
// the fingerprints of the current and the previous DOM, so the capacity is
// tiny; eviction is least-recently-used.
type bonesCache struct {
	capacity int
	extract  func(string) dom.Fingerprint

	// keys holds cache keys in recency order, most recent first. With a
	// capacity of two a slice beats any fancier structure.
	keys   []string
	values map[string]dom.Fingerprint
}

func newBonesCache(capacity int, extract func(string) dom.Fingerprint) *bonesCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &bonesCache{
		capacity: capacity,
		extract:  extract,
		values:   make(map[string]dom.Fingerprint, capacity),
	}
}

// get returns the fingerprint for domText, computing and caching it on a
// miss. A hit never recomputes.
func (c *bonesCache) get(domText string) dom.Fingerprint {
	if fp, ok := c.values[domText]; ok {
		c.touch(domText)
		return fp
	}

	fp := c.extract(domText)

	if len(c.keys) >= c.capacity {
		oldest := c.keys[len(c.keys)-1]
		c.keys = c.keys[:len(c.keys)-1]
		delete(c.values, oldest)
	}
	c.keys = append([]string{domText}, c.keys...)
	c.values[domText] = fp
	return fp
}

// touch moves key to the front of the recency order.
func (c *bonesCache) touch(key string) {
	for i, k := range c.keys {
		if k == key {
			copy(c.keys[1:i+1], c.keys[:i])
			c.keys[0] = key
			return
		}
	}
}

// len returns the number of cached entries.
func (c *bonesCache) len() int {
	return len(c.values)
}
