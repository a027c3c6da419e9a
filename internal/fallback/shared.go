package fallback

import (
	"encoding/json"
	"time"

	"github.com/gofiber/storage/redis/v3"
)

const sharedKeyPrefix = "placeimages:fallback:"

// SharedStore is a key/value tier shared by every process serving images.
// The gofiber storage drivers satisfy it.
type SharedStore interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Reset() error
}

// NewRedisStore connects the shared tier to Redis. Reset flushes the whole
// database, so the URL should select a database used for nothing else.
func NewRedisStore(url string) *redis.Storage {
	return redis.New(redis.Config{URL: url})
}

func (g *Generator) loadShared(id string) (entry, bool) {
	if g.shared == nil {
		return entry{}, false
	}
	raw, err := g.shared.Get(sharedKeyPrefix + id)
	if err != nil {
		g.logger.Warn("shared fallback cache read failed", "place_id", id, "error", err)
		return entry{}, false
	}
	if len(raw) == 0 {
		return entry{}, false
	}
	var ent entry
	if err := json.Unmarshal(raw, &ent); err != nil || ent.URL == "" {
		return entry{}, false
	}
	return ent, true
}

func (g *Generator) saveShared(id string, ent entry) {
	if g.shared == nil {
		return
	}
	raw, err := json.Marshal(ent)
	if err != nil {
		return
	}
	// no expiry: generated URLs are deterministic
	if err := g.shared.Set(sharedKeyPrefix+id, raw, 0); err != nil {
		g.logger.Warn("shared fallback cache write failed", "place_id", id, "error", err)
	}
}
