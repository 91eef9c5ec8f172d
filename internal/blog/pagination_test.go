package blog_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/collector"
	"github.com/qepting91/spacetraveling/internal/domain"
)

var epoch = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func newFetcher(n int) *blog.Fetcher {
	return blog.NewFetcher(collector.NewMemoryRepository(collector.SamplePosts(n, epoch)...), nil)
}

func uids(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.UID
	}
	return out
}

func page(cursor string, ids ...string) domain.PostsPage {
	p := domain.PostsPage{NextPageCursor: cursor}
	for _, id := range ids {
		p.Results = append(p.Results, domain.Post{UID: id})
	}
	return p
}

func TestFetcher_TwentyFivePostsInPagesOfTwenty(t *testing.T) {
	ctx := context.Background()
	f := newFetcher(25)

	first, err := f.FetchFirstPage(ctx, 20, "")
	require.NoError(t, err)
	assert.Len(t, first.Results, 20)
	assert.True(t, first.HasNext())

	second, err := f.FetchNextPage(ctx, first.NextPageCursor)
	require.NoError(t, err)
	assert.Len(t, second.Results, 5)
	assert.False(t, second.HasNext())
	assert.Equal(t, "post-021", second.Results[0].UID)
}

func TestFetcher_FirstPageNeverExceedsPageSize(t *testing.T) {
	f := newFetcher(25)

	for _, size := range []int{1, 2, 7, 20, 25, 30} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			p, err := f.FetchFirstPage(context.Background(), size, "")
			require.NoError(t, err)
			assert.LessOrEqual(t, len(p.Results), size)
			assert.Equal(t, size < 25, p.HasNext())
		})
	}
}

func TestFetcher_ListViewOmitsDetailFields(t *testing.T) {
	p, err := newFetcher(3).FetchFirstPage(context.Background(), 3, "")
	require.NoError(t, err)

	for _, post := range p.Results {
		assert.NotEmpty(t, post.Subtitle)
		assert.Empty(t, post.BannerURL)
		assert.Nil(t, post.Content)
		assert.Nil(t, post.LastPublicationDate)
	}
}

func TestFetcher_RejectsInvalidInput(t *testing.T) {
	f := newFetcher(3)

	_, err := f.FetchFirstPage(context.Background(), 0, "")
	assert.Error(t, err)

	_, err = f.FetchNextPage(context.Background(), "")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)

	_, err = f.FetchNextPage(context.Background(), "https://evil.example.com/steal")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestFetcher_SkipsMalformedDocuments(t *testing.T) {
	repo := collector.NewMemoryRepository(collector.SamplePosts(2, epoch)...)
	repo.Add(domain.RawDocument{ID: "broken", UID: "broken", Type: "post", Data: json.RawMessage(`{"author":"x","content":[]}`)})

	p, err := blog.NewFetcher(repo, nil).FetchFirstPage(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"post-001", "post-002"}, uids(p.Results))
}

func TestMergePage_PreservesOrderAndReportsHasMore(t *testing.T) {
	merged, hasMore := blog.MergePage(page("", "a", "b").Results, page("cursor-2", "c", "d"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, uids(merged))
	assert.True(t, hasMore)

	merged, hasMore = blog.MergePage(merged, page("", "e"))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, uids(merged))
	assert.False(t, hasMore)
}

func TestMergePage_DropsDuplicateUIDs(t *testing.T) {
	merged, _ := blog.MergePage(page("", "a", "b").Results, page("", "b", "c", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, uids(merged))
}

func TestMergePage_DoesNotAliasExisting(t *testing.T) {
	existing := make([]domain.Post, 2, 10)
	existing[0], existing[1] = domain.Post{UID: "a"}, domain.Post{UID: "b"}

	merged, _ := blog.MergePage(existing, page("", "c"))
	merged[0].UID = "changed"

	assert.Equal(t, "a", existing[0].UID)
}

func TestMergePage_Associative(t *testing.T) {
	a, b, c := page("to-b", "1", "2"), page("to-c", "3", "4"), page("", "5")

	left, _ := blog.MergePage(a.Results, b)
	left, leftMore := blog.MergePage(left, c)

	bc, _ := blog.MergePage(b.Results, c)
	right, rightMore := blog.MergePage(a.Results, domain.PostsPage{Results: bc, NextPageCursor: c.NextPageCursor})

	assert.Equal(t, uids(left), uids(right))
	assert.Equal(t, leftMore, rightMore)
}

type stubPages struct {
	pages   map[string]domain.PostsPage
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *stubPages) FetchNextPage(_ context.Context, cursor string) (domain.PostsPage, error) {
	s.calls++
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return domain.PostsPage{}, s.err
	}
	return s.pages[cursor], nil
}

func TestFeed_LoadMoreExtendsUntilExhausted(t *testing.T) {
	stub := &stubPages{pages: map[string]domain.PostsPage{
		"p2": page("p3", "c", "d"),
		"p3": page("", "e"),
	}}
	feed := blog.NewFeed(stub, page("p2", "a", "b"))
	ctx := context.Background()

	require.True(t, feed.HasMore())

	added, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.True(t, feed.HasMore())

	added, err = feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.False(t, feed.HasMore())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, uids(feed.Posts()))

	_, err = feed.LoadMore(ctx)
	assert.ErrorIs(t, err, domain.ErrNoMorePages)
	assert.Equal(t, 2, stub.calls, "no fetch once the cursor is exhausted")
}

func TestFeed_FailedLoadLeavesStateUnchanged(t *testing.T) {
	boom := &domain.FetchError{Op: "next", StatusCode: 503}
	feed := blog.NewFeed(&stubPages{err: boom}, page("p2", "a"))

	_, err := feed.LoadMore(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.True(t, feed.HasMore())
	assert.False(t, feed.Loading())
	assert.Equal(t, []string{"a"}, uids(feed.Posts()))
}

func TestFeed_IgnoresLoadWhileOneIsInFlight(t *testing.T) {
	stub := &stubPages{
		pages:   map[string]domain.PostsPage{"p2": page("", "b")},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	feed := blog.NewFeed(stub, page("p2", "a"))

	done := make(chan error, 1)
	go func() {
		_, err := feed.LoadMore(context.Background())
		done <- err
	}()
	<-stub.started

	assert.True(t, feed.Loading())
	_, err := feed.LoadMore(context.Background())
	assert.ErrorIs(t, err, domain.ErrLoadInProgress)

	close(stub.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, []string{"a", "b"}, uids(feed.Posts()))
}

func TestFeed_LoadAllWalksEveryPage(t *testing.T) {
	f := newFetcher(45)
	first, err := f.FetchFirstPage(context.Background(), 20, "")
	require.NoError(t, err)

	feed := blog.NewFeed(f, first)
	require.NoError(t, feed.LoadAll(context.Background()))

	posts := feed.Posts()
	assert.Len(t, posts, 45)
	assert.Equal(t, "post-045", posts[44].UID)
}

func TestFeed_LoadAllStopsOnError(t *testing.T) {
	feed := blog.NewFeed(&stubPages{err: errors.New("down")}, page("p2", "a"))

	assert.Error(t, feed.LoadAll(context.Background()))
}
