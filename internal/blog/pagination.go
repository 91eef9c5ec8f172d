package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/metrics"
)

// PostType is the repository document type holding blog posts.
const PostType = "post"

// Fetcher reads pages of posts from the content repository.
type Fetcher struct {
	repo   domain.Repository
	logger *slog.Logger
}

func NewFetcher(repo domain.Repository, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{repo: repo, logger: logger}
}

// FetchFirstPage returns up to pageSize posts in the repository's default
// order. ref selects a preview release; empty means published content.
func (f *Fetcher) FetchFirstPage(ctx context.Context, pageSize int, ref string) (domain.PostsPage, error) {
	if pageSize < 1 {
		return domain.PostsPage{}, fmt.Errorf("page size must be at least 1, got %d", pageSize)
	}

	resp, err := f.repo.Search(ctx, domain.Query{
		DocumentType: PostType,
		PageSize:     pageSize,
		Page:         1,
		Ref:          ref,
	})
	if err != nil {
		return domain.PostsPage{}, fmt.Errorf("fetch first page: %w", err)
	}
	return f.toPage(resp, pageSize), nil
}

// FetchNextPage follows a cursor returned with an earlier page.
func (f *Fetcher) FetchNextPage(ctx context.Context, cursor string) (domain.PostsPage, error) {
	if cursor == "" {
		return domain.PostsPage{}, &domain.FetchError{Op: "next", Err: domain.ErrInvalidCursor}
	}

	resp, err := f.repo.Next(ctx, cursor)
	if err != nil {
		return domain.PostsPage{}, fmt.Errorf("fetch next page: %w", err)
	}
	return f.toPage(resp, 0), nil
}

func (f *Fetcher) toPage(resp *domain.SearchResponse, limit int) domain.PostsPage {
	page := domain.PostsPage{Results: make([]domain.Post, 0, len(resp.Results))}
	if resp.NextPage != nil {
		page.NextPageCursor = *resp.NextPage
	}

	for _, doc := range resp.Results {
		if limit > 0 && len(page.Results) == limit {
			break
		}
		post, err := Normalize(doc)
		if err != nil {
			metrics.SkippedDocuments.Inc()
			f.logger.Warn("Skipping malformed document", "id", doc.ID, "uid", doc.UID, "err", err)
			continue
		}
		page.Results = append(page.Results, Summary(post))
	}
	return page
}

// MergePage appends incoming results after existing, keeping order. Posts whose
// uid is already present are dropped. The returned flag reports whether more
// pages remain.
func MergePage(existing []domain.Post, incoming domain.PostsPage) ([]domain.Post, bool) {
	seen := make(map[string]struct{}, len(existing)+len(incoming.Results))
	merged := make([]domain.Post, 0, len(existing)+len(incoming.Results))
	for _, p := range existing {
		seen[p.UID] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range incoming.Results {
		if _, dup := seen[p.UID]; dup {
			continue
		}
		seen[p.UID] = struct{}{}
		merged = append(merged, p)
	}
	return merged, incoming.HasNext()
}

type PageFetcher interface {
	FetchNextPage(ctx context.Context, cursor string) (domain.PostsPage, error)
}

// Feed is an incrementally loaded list of posts. It is Idle between loads and
// allows one load in flight; a failed load leaves the list and cursor as they
// were.
type Feed struct {
	fetcher PageFetcher

	mu      sync.Mutex
	posts   []domain.Post
	cursor  string
	loading bool
}

func NewFeed(fetcher PageFetcher, first domain.PostsPage) *Feed {
	posts, _ := MergePage(nil, first)
	return &Feed{fetcher: fetcher, posts: posts, cursor: first.NextPageCursor}
}

func (f *Feed) Posts() []domain.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor != ""
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// LoadMore fetches the next page and appends it, returning how many posts were
// added. It returns domain.ErrLoadInProgress if a load is already running and
// domain.ErrNoMorePages once the listing is exhausted.
func (f *Feed) LoadMore(ctx context.Context) (int, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return 0, domain.ErrLoadInProgress
	}
	if f.cursor == "" {
		f.mu.Unlock()
		return 0, domain.ErrNoMorePages
	}
	cursor := f.cursor
	f.loading = true
	f.mu.Unlock()

	page, err := f.fetcher.FetchNextPage(ctx, cursor)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		return 0, err
	}

	before := len(f.posts)
	merged, hasMore := MergePage(f.posts, page)
	f.posts = merged
	if hasMore {
		f.cursor = page.NextPageCursor
	} else {
		f.cursor = ""
	}
	return len(merged) - before, nil
}

// LoadAll keeps loading until the listing is exhausted.
func (f *Feed) LoadAll(ctx context.Context) error {
	for {
		_, err := f.LoadMore(ctx)
		if errors.Is(err, domain.ErrNoMorePages) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
