package collector_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/spacetraveling/internal/collector"
	"github.com/qepting91/spacetraveling/internal/domain"
)

type countingRepository struct {
	domain.Repository
	searches int
	nexts    int
}

func (c *countingRepository) Search(ctx context.Context, q domain.Query) (*domain.SearchResponse, error) {
	c.searches++
	return c.Repository.Search(ctx, q)
}

func (c *countingRepository) Next(ctx context.Context, cursor string) (*domain.SearchResponse, error) {
	c.nexts++
	return c.Repository.Next(ctx, cursor)
}

func (c *countingRepository) IsPreviewCursor(ctx context.Context, cursor string) bool {
	d, ok := c.Repository.(collector.PreviewCursorDetector)
	return ok && d.IsPreviewCursor(ctx, cursor)
}

func newCached(t *testing.T, ttl time.Duration) (*collector.CachedRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingRepository{Repository: collector.NewMemoryRepository(collector.SamplePosts(5, epoch)...)}
	return collector.NewCachedRepository(inner, rdb, ttl, nil), inner, mr
}

func TestCachedRepository_ServesRepeatsFromRedis(t *testing.T) {
	cached, inner, _ := newCached(t, time.Minute)
	ctx := context.Background()
	q := domain.Query{DocumentType: "post", PageSize: 2}

	first, err := cached.Search(ctx, q)
	require.NoError(t, err)
	second, err := cached.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.searches)
	assert.Equal(t, ids(first.Results), ids(second.Results))
	require.NotNil(t, second.NextPage)

	_, err = cached.Next(ctx, *second.NextPage)
	require.NoError(t, err)
	_, err = cached.Next(ctx, *second.NextPage)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.nexts)
}

func TestCachedRepository_ExpiresAfterTTL(t *testing.T) {
	cached, inner, mr := newCached(t, time.Minute)
	ctx := context.Background()
	q := domain.Query{DocumentType: "post"}

	_, err := cached.Search(ctx, q)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cached.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.searches)
}

func TestCachedRepository_BypassesPreview(t *testing.T) {
	cached, inner, mr := newCached(t, time.Minute)
	inner.Repository.(*collector.MemoryRepository).AddPreview("ref-1")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cached.Search(ctx, domain.Query{DocumentType: "post", Ref: "ref-1"})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, inner.searches)
	assert.Empty(t, mr.Keys())
}

func TestCachedRepository_BypassesPreviewCursors(t *testing.T) {
	cached, inner, mr := newCached(t, time.Minute)
	inner.Repository.(*collector.MemoryRepository).AddPreview("ref-1")
	ctx := context.Background()

	first, err := cached.Search(ctx, domain.Query{DocumentType: "post", PageSize: 2, Ref: "ref-1"})
	require.NoError(t, err)
	require.NotNil(t, first.NextPage)

	for i := 0; i < 2; i++ {
		_, err := cached.Next(ctx, *first.NextPage)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, inner.nexts)
	assert.Empty(t, mr.Keys())
}

func TestCachedRepository_FallsBackWhenRedisIsDown(t *testing.T) {
	cached, inner, mr := newCached(t, time.Minute)
	mr.Close()

	resp, err := cached.Search(context.Background(), domain.Query{DocumentType: "post"})

	require.NoError(t, err)
	assert.Len(t, resp.Results, 5)
	assert.Equal(t, 1, inner.searches)
}

func TestCachedRepository_DoesNotCacheErrors(t *testing.T) {
	cached, _, mr := newCached(t, time.Minute)

	_, err := cached.Next(context.Background(), "not-a-cursor")

	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	assert.Empty(t, mr.Keys())
}
