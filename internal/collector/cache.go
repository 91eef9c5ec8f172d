package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "spacetraveling:search:"

// PreviewCursorDetector is implemented by repositories that can tell which
// ref a next_page cursor was issued under.
type PreviewCursorDetector interface {
	IsPreviewCursor(ctx context.Context, cursor string) bool
}

// CachedRepository keeps published search results in redis for ttl, so pages
// are regenerated at most once per revalidation window. Preview queries and
// the cursors they hand out are never cached. Cache failures degrade to a
// direct call.
type CachedRepository struct {
	next   domain.Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedRepository(next domain.Repository, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (cr *CachedRepository) Search(ctx context.Context, q domain.Query) (*domain.SearchResponse, error) {
	if q.Ref != "" {
		return cr.next.Search(ctx, q)
	}
	raw, _ := json.Marshal(q)
	return cr.cached(ctx, "q:"+string(raw), func() (*domain.SearchResponse, error) {
		return cr.next.Search(ctx, q)
	})
}

func (cr *CachedRepository) Next(ctx context.Context, cursor string) (*domain.SearchResponse, error) {
	if d, ok := cr.next.(PreviewCursorDetector); ok && d.IsPreviewCursor(ctx, cursor) {
		return cr.next.Next(ctx, cursor)
	}
	return cr.cached(ctx, "c:"+cursor, func() (*domain.SearchResponse, error) {
		return cr.next.Next(ctx, cursor)
	})
}

func (cr *CachedRepository) cached(ctx context.Context, id string, load func() (*domain.SearchResponse, error)) (*domain.SearchResponse, error) {
	key := cacheKey(id)

	payload, err := cr.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var resp domain.SearchResponse
		if jsonErr := json.Unmarshal(payload, &resp); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &resp, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		cr.logger.Warn("Cache read failed", "key", key, "err", err)
	}

	resp, err := load()
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(resp); err == nil {
		if err := cr.rdb.Set(ctx, key, encoded, cr.ttl).Err(); err != nil {
			cr.logger.Warn("Cache write failed", "key", key, "err", err)
		}
	}
	return resp, nil
}

func cacheKey(id string) string {
	sum := sha256.Sum256([]byte(id))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
