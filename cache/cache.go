// cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"match-stats-system/models"
	"match-stats-system/utils"
)

// Settings control one aggregation's cache entries. Bumping Version after an
// aggregation's output shape changes makes every stored entry for that name
// stale at once, without waiting for TTLs to run out.
type Settings struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Version int           `mapstructure:"version"`
}

// DefaultSettings is the compiled-in TTL/version table, overridable per entry
// via the yaml config.
var DefaultSettings = map[string]Settings{
	"activity":       {TTL: 5 * time.Minute, Version: 1},
	"winRate":        {TTL: 5 * time.Minute, Version: 1},
	"classStats":     {TTL: 10 * time.Minute, Version: 1},
	"gameLength":     {TTL: 5 * time.Minute, Version: 1},
	"playerActivity": {TTL: 10 * time.Minute, Version: 1},
	"classSelection": {TTL: 10 * time.Minute, Version: 1},
	"classWinRate":   {TTL: 10 * time.Minute, Version: 1},
	"aggregateStats": {TTL: 15 * time.Minute, Version: 1},
	"topHunters":     {TTL: 10 * time.Minute, Version: 1},
	"topHealers":     {TTL: 10 * time.Minute, Version: 1},
	"ratingHistory":  {TTL: 10 * time.Minute, Version: 1},
}

var fallbackSettings = Settings{TTL: 5 * time.Minute, Version: 1}

// LoadSettings reads the aggregation table from a yaml file and merges it over
// DefaultSettings. Entries absent from the file keep their defaults.
func LoadSettings(path string) (map[string]Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read cache config: %w", err)
	}

	var file struct {
		Aggregations map[string]Settings `mapstructure:"aggregations"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parse cache config: %w", err)
	}

	merged := make(map[string]Settings, len(DefaultSettings))
	for name, s := range DefaultSettings {
		merged[name] = s
	}
	for name, s := range file.Aggregations {
		if s.TTL <= 0 {
			s.TTL = fallbackSettings.TTL
		}
		if s.Version <= 0 {
			s.Version = fallbackSettings.Version
		}
		merged[name] = s
	}
	return merged, nil
}

// Envelope is the stored form of one cache entry. An entry is live only when
// both the TTL and the version check pass on read.
type Envelope struct {
	Version   int             `json:"version"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Category  string          `json:"category"`
	Value     json.RawMessage `json:"value"`
}

// Backend is the storage behind ResultCache. Get returns (nil, nil) on miss.
// Invalidate with an empty category clears everything.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration, category string) error
	Invalidate(ctx context.Context, category string) error
	// Sweep visits stored entries and removes those the callback marks stale.
	// Returns the number of removed entries.
	Sweep(ctx context.Context, stale func(key string, payload []byte) bool) int
}

// ResultCache fronts the aggregation pipelines. Backend failures never fail
// the caller: a broken read computes fresh, a broken write serves the computed
// value uncached.
type ResultCache struct {
	backend  Backend
	settings map[string]Settings
	logger   *logrus.Entry
}

// New builds a cache over the given backend and settings table. A nil
// settings map falls back to DefaultSettings.
func New(backend Backend, settings map[string]Settings, logger *logrus.Logger) *ResultCache {
	if settings == nil {
		settings = DefaultSettings
	}
	return &ResultCache{
		backend:  backend,
		settings: settings,
		logger:   logger.WithField("component", "resultCache"),
	}
}

func (c *ResultCache) settingsFor(name string) Settings {
	if s, ok := c.settings[name]; ok {
		return s
	}
	return fallbackSettings
}

// Invalidate drops every entry tagged with the category. An empty category
// clears the whole cache.
func (c *ResultCache) Invalidate(ctx context.Context, category string) {
	if category != "" {
		category = utils.NormalizeCategory(category)
	}
	if err := c.backend.Invalidate(ctx, category); err != nil {
		c.logger.WithError(err).WithField("category", category).Warn("cache invalidation failed")
	}
}

// Sweep removes entries that have expired or whose stored version no longer
// matches the configured one. Run periodically; reads stay correct without it
// because every Get revalidates.
func (c *ResultCache) Sweep(ctx context.Context) int {
	removed := c.backend.Sweep(ctx, func(key string, payload []byte) bool {
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return true
		}
		if time.Now().After(env.ExpiresAt) {
			return true
		}
		return env.Version != c.settingsFor(nameFromKey(key)).Version
	})
	if removed > 0 {
		c.logger.WithField("removed", removed).Info("cache sweep complete")
	}
	return removed
}

// Key derives the canonical cache key for one aggregation call. Field order is
// fixed so identical filters always serialize identically regardless of how
// the filter struct was assembled.
func Key(name string, f models.MatchFilters) string {
	var b strings.Builder
	b.WriteString("analytics:")
	b.WriteString(name)
	b.WriteString(":")

	appendField := func(field, value string) {
		if value == "" {
			return
		}
		b.WriteString(field)
		b.WriteString("=")
		b.WriteString(value)
		b.WriteString("|")
	}
	appendField("state", string(f.State))
	appendField("startDate", f.StartDate)
	appendField("endDate", f.EndDate)
	appendField("category", f.Category)
	appendField("playerName", f.PlayerName)
	appendField("teamFormat", f.TeamFormat)
	if f.MatchNumber != nil {
		appendField("matchNumber", strconv.Itoa(*f.MatchNumber))
	}
	if f.Limit > 0 {
		appendField("limit", strconv.Itoa(f.Limit))
	}
	return strings.TrimSuffix(b.String(), "|")
}

func nameFromKey(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// GetOrCompute returns the cached value for (name, filters) when a live entry
// exists, otherwise runs compute and stores its result. Concurrent callers on
// the same key may both compute; the duplicated work is accepted instead of a
// single-flight lock.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, name string, filters models.MatchFilters, compute func(ctx context.Context) (T, error)) (T, error) {
	key := Key(name, filters)
	settings := c.settingsFor(name)

	payload, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache read failed, computing fresh")
	} else if payload != nil {
		var env Envelope
		if json.Unmarshal(payload, &env) == nil &&
			env.Version == settings.Version &&
			time.Now().Before(env.ExpiresAt) {
			var value T
			if json.Unmarshal(env.Value, &value) == nil {
				return value, nil
			}
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache encode failed")
		return value, nil
	}
	now := time.Now()
	env := Envelope{
		Version:   settings.Version,
		StoredAt:  now,
		ExpiresAt: now.Add(settings.TTL),
		Category:  utils.NormalizeCategory(filters.Category),
		Value:     raw,
	}
	envelope, _ := json.Marshal(env)
	if err := c.backend.Set(ctx, key, envelope, settings.TTL, env.Category); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return value, nil
}

// InvalidationBus decouples mutation side effects from the cache: the write
// path publishes the affected category and moves on, a consumer goroutine
// applies the invalidations. Publishing never blocks; when the buffer is full
// the signal is dropped and the TTL picks up the slack.
type InvalidationBus struct {
	ch     chan string
	logger *logrus.Entry
}

// NewInvalidationBus creates a bus with the given buffer size.
func NewInvalidationBus(buffer int, logger *logrus.Logger) *InvalidationBus {
	return &InvalidationBus{
		ch:     make(chan string, buffer),
		logger: logger.WithField("component", "invalidationBus"),
	}
}

// Publish queues a category invalidation without blocking.
func (b *InvalidationBus) Publish(category string) {
	select {
	case b.ch <- category:
	default:
		b.logger.WithField("category", category).Warn("invalidation bus full, signal dropped")
	}
}

// Run consumes invalidation signals until ctx is done.
func (b *InvalidationBus) Run(ctx context.Context, cache *ResultCache) {
	for {
		select {
		case <-ctx.Done():
			return
		case category := <-b.ch:
			cache.Invalidate(ctx, category)
		}
	}
}
