package blog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/collector"
	"github.com/qepting91/spacetraveling/internal/domain"
)

func newService(n int) (*blog.Service, *collector.MemoryRepository) {
	repo := collector.NewMemoryRepository(collector.SamplePosts(n, epoch)...)
	return blog.NewService(repo, nil), repo
}

func TestService_ListPosts(t *testing.T) {
	svc, _ := newService(25)
	ctx := context.Background()

	first, err := svc.ListPosts(ctx, 20, "", "")
	require.NoError(t, err)
	require.Len(t, first.Results, 20)

	rest, err := svc.ListPosts(ctx, 20, first.NextPageCursor, "")
	require.NoError(t, err)
	assert.Len(t, rest.Results, 5)
	assert.Empty(t, rest.NextPageCursor)
}

func TestService_GetPost(t *testing.T) {
	svc, _ := newService(3)

	post, err := svc.GetPost(context.Background(), "post-002", "")
	require.NoError(t, err)
	assert.Equal(t, "Mission log 2", post.Title)
	assert.NotEmpty(t, post.BannerURL)
	assert.Len(t, post.Content, 2)
	assert.Positive(t, blog.EstimateReadingTime(post.Content))
}

func TestService_GetPostNotFound(t *testing.T) {
	svc, _ := newService(3)

	_, err := svc.GetPost(context.Background(), "missing", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.UID)
}

func TestService_GetPostUsesPreviewRef(t *testing.T) {
	svc, repo := newService(3)
	first := epoch
	repo.AddPreview("preview-ref", collector.PostFixture{
		ID: "doc-002", UID: "post-002", Title: "Draft title", Author: "Editor", First: &first,
	}.Document())
	ctx := context.Background()

	draft, err := svc.GetPost(ctx, "post-002", "preview-ref")
	require.NoError(t, err)
	assert.Equal(t, "Draft title", draft.Title)

	published, err := svc.GetPost(ctx, "post-002", "")
	require.NoError(t, err)
	assert.Equal(t, "Mission log 2", published.Title)

	_, err = svc.GetPost(ctx, "post-002", "unknown-ref")
	var fetchErr *domain.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestService_GetAdjacent(t *testing.T) {
	svc, _ := newService(3)
	ctx := context.Background()

	adj, err := svc.GetAdjacent(ctx, "post-001", "")
	require.NoError(t, err)
	assert.Nil(t, adj.Previous)
	require.NotNil(t, adj.Next)
	assert.Equal(t, "post-002", adj.Next.UID)

	adj, err = svc.GetAdjacent(ctx, "post-003", "")
	require.NoError(t, err)
	require.NotNil(t, adj.Previous)
	assert.Equal(t, "post-002", adj.Previous.UID)
	assert.Nil(t, adj.Next)

	_, err = svc.GetAdjacent(ctx, "nope", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_GetAdjacentStepsOverMalformedNeighbour(t *testing.T) {
	docs := collector.SamplePosts(3, epoch)
	docs[1].Data = json.RawMessage(`{"author":"a","content":[]}`)
	svc := blog.NewService(collector.NewMemoryRepository(docs...), nil)

	adj, err := svc.GetAdjacent(context.Background(), "post-003", "")

	require.NoError(t, err)
	require.NotNil(t, adj.Previous)
	assert.Equal(t, "post-001", adj.Previous.UID)
	assert.Nil(t, adj.Next)
}

func TestService_AllPosts(t *testing.T) {
	svc, _ := newService(25)

	posts, err := svc.AllPosts(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Len(t, posts, 25)
}
