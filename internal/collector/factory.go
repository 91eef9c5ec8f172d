package collector

import (
	"fmt"
	"log/slog"

	"github.com/qepting91/spacetraveling/internal/config"
	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/redis/go-redis/v9"
)

// NewRepository selects the content source from cfg.Content.Mode and wraps it
// in the redis cache when one is configured. The returned close func releases
// the redis connection.
func NewRepository(cfg *config.Config, logger *slog.Logger) (domain.Repository, func() error, error) {
	var repo domain.Repository

	switch cfg.Content.Mode {
	case config.ModePrismic:
		pc, err := NewPrismicClient(PrismicConfig{
			Endpoint:          cfg.Content.Endpoint,
			AccessToken:       cfg.Content.AccessToken,
			UserAgent:         cfg.Content.UserAgent,
			Timeout:           cfg.Content.Timeout,
			RequestsPerSecond: cfg.Content.RateLimit,
		})
		if err != nil {
			return nil, nil, err
		}
		repo = pc
	case config.ModeMock:
		repo = NewMockClient()
	default:
		return nil, nil, fmt.Errorf("unknown CONTENT_MODE: %s (use 'prismic' or 'mock')", cfg.Content.Mode)
	}

	noop := func() error { return nil }
	if cfg.Cache.RedisAddress == "" {
		return repo, noop, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	logger.Info("Query cache enabled", "redis", cfg.Cache.RedisAddress, "ttl", cfg.Cache.TTL)
	return NewCachedRepository(repo, rdb, cfg.Cache.TTL, logger), rdb.Close, nil
}
