package blog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/metrics"
)

// neighbourCandidates is how many documents are read past a post, so a
// malformed neighbour can be stepped over.
const neighbourCandidates = 3

// Resolver finds the posts around a given post.
//
// Previous and next deliberately order by different fields: previous walks
// first publication dates ascending, next walks last publication dates
// descending. Both rely on the repository's "after" cursor.
type Resolver struct {
	repo   domain.Repository
	logger *slog.Logger
}

func NewResolver(repo domain.Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

func (r *Resolver) ResolvePrevious(ctx context.Context, postID, ref string) (*domain.Post, error) {
	return r.neighbour(ctx, postID, ref, domain.Ordering{Field: domain.FieldFirstPublicationDate})
}

func (r *Resolver) ResolveNext(ctx context.Context, postID, ref string) (*domain.Post, error) {
	return r.neighbour(ctx, postID, ref, domain.Ordering{Field: domain.FieldLastPublicationDate, Desc: true})
}

// neighbour returns the nearest well-formed post after postID, or nil when
// there is none. Malformed documents are skipped as in listings.
func (r *Resolver) neighbour(ctx context.Context, postID, ref string, order domain.Ordering) (*domain.Post, error) {
	resp, err := r.repo.Search(ctx, domain.Query{
		DocumentType: PostType,
		PageSize:     neighbourCandidates,
		After:        postID,
		Orderings:    []domain.Ordering{order},
		Ref:          ref,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve neighbour of %s: %w", postID, err)
	}

	for _, doc := range resp.Results {
		post, err := Normalize(doc)
		if err != nil {
			metrics.SkippedDocuments.Inc()
			r.logger.Warn("Skipping malformed neighbour", "post_id", postID, "id", doc.ID, "uid", doc.UID, "err", err)
			continue
		}
		summary := Summary(post)
		return &summary, nil
	}
	return nil, nil
}
