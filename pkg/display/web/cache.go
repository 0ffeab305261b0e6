package web

// cacheEntry is a compressed frame, keyed by the hash of the frame
// it was compressed from.
type cacheEntry struct {
	hash uint64
	data []byte
}

// cache is a ring of recently sent frames. Clients keep a mirror of
// it, so a frame that is still cached is sent as its index alone.
type cache struct {
	entries []cacheEntry
	idx     int
}

func newCache(size int) *cache {
	return &cache{entries: make([]cacheEntry, size)}
}

// add stores data, overwriting the oldest entry, and returns its
// index.
func (c *cache) add(hash uint64, data []byte) int {
	i := c.idx
	c.entries[i] = cacheEntry{hash: hash, data: data}
	c.idx = (c.idx + 1) % len(c.entries)
	return i
}

// index returns the index of hash, or -1 if it isn't cached.
func (c *cache) index(hash uint64) int {
	for i, e := range c.entries {
		if e.data != nil && e.hash == hash {
			return i
		}
	}
	return -1
}
