// Package cache stores computed seat maps in Redis.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatMapCache caches the stored state of a showtime's seats.  Entries are
// dropped on every booking transition of the showtime; the TTL only bounds
// staleness if an invalidation is lost.  A nil client disables the cache.
type SeatMapCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    logrus.FieldLogger
}

func NewSeatMapCache(rdb *redis.Client, prefix string, ttl time.Duration, log logrus.FieldLogger) *SeatMapCache {
	if prefix == "" {
		prefix = "cinema"
	}
	return &SeatMapCache{rdb: rdb, ttl: ttl, prefix: prefix, log: log}
}

func (c *SeatMapCache) key(showtimeID uint64) string {
	return c.prefix + ":seatmap:" + strconv.FormatUint(showtimeID, 10)
}

// Get returns the cached map and true on a hit.
func (c *SeatMapCache) Get(ctx context.Context, showtimeID uint64) (model.SeatMap, bool) {
	var sm model.SeatMap
	if c == nil || c.rdb == nil {
		return sm, false
	}
	raw, err := c.rdb.Get(ctx, c.key(showtimeID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("seatmap cache get failed")
		}
		return sm, false
	}
	if err := json.Unmarshal(raw, &sm); err != nil {
		return sm, false
	}
	return sm, true
}

func (c *SeatMapCache) Set(ctx context.Context, sm model.SeatMap) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(sm)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(sm.ShowtimeID), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("seatmap cache set failed")
	}
}

// Invalidate drops the cached map of a showtime.
func (c *SeatMapCache) Invalidate(ctx context.Context, showtimeID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(showtimeID)).Err(); err != nil {
		c.log.WithError(err).Warn("seatmap cache invalidate failed")
	}
}
