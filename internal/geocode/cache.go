package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"baches/internal/config"
	"baches/internal/metrics"
	"baches/internal/models"
)

// gridPrecision rounds coordinates to about 11 m, closer than a street width.
const gridPrecision = 4

// Cached memoizes lookups in Redis by rounded coordinates. Cache failures
// fall through to the wrapped Reverser.
type Cached struct {
	next   Reverser
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCached(next Reverser, client *redis.Client, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{next: next, client: client, ttl: ttl, log: log}
}

func (c *Cached) Reverse(ctx context.Context, lat, lng float64) (models.Address, error) {
	key := CacheKey(lat, lng)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addr models.Address
		if jsonErr := json.Unmarshal(raw, &addr); jsonErr == nil {
			metrics.GeocodeLookupsTotal.WithLabelValues("cache", "ok").Inc()
			return addr, nil
		}
		c.log.Warn().Str("key", key).Msg("malformed geocode cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("geocode cache read")
	}

	addr, err := c.next.Reverse(ctx, lat, lng)
	if err != nil {
		return models.Address{}, err
	}

	if payload, err := json.Marshal(addr); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("geocode cache write")
		}
	}
	return addr, nil
}

func CacheKey(lat, lng float64) string {
	scale := math.Pow(10, gridPrecision)
	rlat := math.Round(lat*scale) / scale
	rlng := math.Round(lng*scale) / scale
	return fmt.Sprintf("baches:geocode:%.*f,%.*f", gridPrecision, rlat, gridPrecision, rlng)
}

// FromConfig builds the configured geocoder, cached when a Redis client is
// available. It returns nil when geocoding is disabled.
func FromConfig(cfg config.GeocodeConfig, client *redis.Client, log zerolog.Logger) Reverser {
	if !cfg.Enabled {
		return nil
	}
	var r Reverser = NewClient(Options{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Rate:      cfg.Rate,
		Timeout:   cfg.Timeout,
	}, log)
	if client != nil && cfg.CacheTTL > 0 {
		r = NewCached(r, client, cfg.CacheTTL, log)
	}
	return r
}
