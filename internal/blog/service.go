// Package blog turns repository documents into the posts, pages and
// navigation the site renders.
package blog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/spacetraveling/internal/domain"
)

// Adjacent holds the neighbours of a post. Either may be nil.
type Adjacent struct {
	Previous *domain.Post
	Next     *domain.Post
}

// Service is the read API used by page renderers.
type Service struct {
	repo     domain.Repository
	fetcher  *Fetcher
	resolver *Resolver
	logger   *slog.Logger
}

func NewService(repo domain.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		fetcher:  NewFetcher(repo, logger),
		resolver: NewResolver(repo, logger),
		logger:   logger,
	}
}

func (s *Service) Fetcher() *Fetcher { return s.fetcher }

// ListPosts returns the first page when cursor is empty and follows cursor
// otherwise. ref only applies to the first page; cursors carry their own.
func (s *Service) ListPosts(ctx context.Context, pageSize int, cursor, ref string) (domain.PostsPage, error) {
	if cursor == "" {
		return s.fetcher.FetchFirstPage(ctx, pageSize, ref)
	}
	return s.fetcher.FetchNextPage(ctx, cursor)
}

// GetPost returns the full post for uid, or *domain.NotFoundError.
func (s *Service) GetPost(ctx context.Context, uid, previewRef string) (domain.Post, error) {
	resp, err := s.repo.Search(ctx, domain.Query{
		DocumentType: PostType,
		UID:          uid,
		PageSize:     1,
		Ref:          previewRef,
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post %s: %w", uid, err)
	}
	if len(resp.Results) == 0 {
		return domain.Post{}, &domain.NotFoundError{UID: uid}
	}
	return Normalize(resp.Results[0])
}

// GetAdjacent resolves the neighbours of the post with uid.
func (s *Service) GetAdjacent(ctx context.Context, uid, ref string) (Adjacent, error) {
	post, err := s.GetPost(ctx, uid, ref)
	if err != nil {
		return Adjacent{}, err
	}
	return s.Neighbours(ctx, post, ref)
}

// Neighbours resolves the neighbours of an already loaded post.
func (s *Service) Neighbours(ctx context.Context, post domain.Post, ref string) (Adjacent, error) {
	prev, err := s.resolver.ResolvePrevious(ctx, post.ID, ref)
	if err != nil {
		return Adjacent{}, err
	}
	next, err := s.resolver.ResolveNext(ctx, post.ID, ref)
	if err != nil {
		return Adjacent{}, err
	}
	return Adjacent{Previous: prev, Next: next}, nil
}

// AllPosts walks every page and returns the summaries in listing order.
func (s *Service) AllPosts(ctx context.Context, pageSize int, ref string) ([]domain.Post, error) {
	first, err := s.fetcher.FetchFirstPage(ctx, pageSize, ref)
	if err != nil {
		return nil, err
	}
	feed := NewFeed(s.fetcher, first)
	if err := feed.LoadAll(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded all posts", "count", len(feed.Posts()))
	return feed.Posts(), nil
}
