package render

import (
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/zeebo/blake3"
)

// resultCache keeps successful renders keyed by a hash of mode and text,
// so reloading an unchanged file does not spend API quota.
type resultCache struct {
	c *cache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{c: cache.New(ttl, 2*ttl)}
}

func cacheKey(mode, text string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(mode))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (r *resultCache) get(mode, text string) (string, bool) {
	v, ok := r.c.Get(cacheKey(mode, text))
	if !ok {
		return "", false
	}
	html, ok := v.(string)
	return html, ok
}

func (r *resultCache) set(mode, text, html string) {
	r.c.SetDefault(cacheKey(mode, text), html)
}
