package collector

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/spacetraveling/internal/domain"
)

const (
	memoryScheme    = "memory"
	defaultPageSize = 20
	maxPageSize     = 100
)

// MemoryRepository implements domain.Repository over documents held in memory.
// It follows the repository contract the pipeline relies on: stable pagination,
// the requested ordering, and a next_page cursor that is nil exactly when the
// results are exhausted.
//
// "after" returns the documents that precede the given document in the
// requested ordering, nearest first.
type MemoryRepository struct {
	mu       sync.RWMutex
	docs     []domain.RawDocument
	previews map[string][]domain.RawDocument
}

func NewMemoryRepository(docs ...domain.RawDocument) *MemoryRepository {
	return &MemoryRepository{
		docs:     docs,
		previews: make(map[string][]domain.RawDocument),
	}
}

// NewMockClient returns a repository seeded with sample posts.
func NewMockClient() *MemoryRepository {
	return NewMemoryRepository(SamplePosts(25, time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC))...)
}

func (mr *MemoryRepository) Add(docs ...domain.RawDocument) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.docs = append(mr.docs, docs...)
}

// AddPreview registers draft versions visible only under ref. A draft replaces
// the published document with the same ID.
func (mr *MemoryRepository) AddPreview(ref string, docs ...domain.RawDocument) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.previews[ref] = append(mr.previews[ref], docs...)
}

func (mr *MemoryRepository) Search(ctx context.Context, q domain.Query) (*domain.SearchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{Op: "search", Err: err}
	}

	mr.mu.RLock()
	docs, err := mr.snapshot(q.Ref)
	mr.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	matched := make([]domain.RawDocument, 0, len(docs))
	for _, d := range docs {
		if q.DocumentType != "" && d.Type != q.DocumentType {
			continue
		}
		if q.UID != "" && d.UID != q.UID {
			continue
		}
		matched = append(matched, d)
	}

	if len(q.Orderings) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], q.Orderings)
		})
	}

	if q.After != "" {
		matched = preceding(matched, q.After)
	}

	return paginate(matched, q), nil
}

func (mr *MemoryRepository) Next(ctx context.Context, cursor string) (*domain.SearchResponse, error) {
	q, err := decodeCursor(cursor)
	if err != nil {
		return nil, &domain.FetchError{Op: "next", URL: cursor, Err: domain.ErrInvalidCursor}
	}
	return mr.Search(ctx, q)
}

// IsPreviewCursor reports whether cursor continues a search made under a
// preview ref.
func (mr *MemoryRepository) IsPreviewCursor(_ context.Context, cursor string) bool {
	q, err := decodeCursor(cursor)
	return err == nil && q.Ref != ""
}

// snapshot must be called with mu held.
func (mr *MemoryRepository) snapshot(ref string) ([]domain.RawDocument, error) {
	docs := make([]domain.RawDocument, len(mr.docs))
	copy(docs, mr.docs)
	if ref == "" {
		return docs, nil
	}

	drafts, ok := mr.previews[ref]
	if !ok {
		return nil, &domain.FetchError{Op: "search", StatusCode: 404, Err: fmt.Errorf("unknown ref %q", ref)}
	}
	for _, draft := range drafts {
		replaced := false
		for i := range docs {
			if docs[i].ID == draft.ID {
				docs[i], replaced = draft, true
				break
			}
		}
		if !replaced {
			docs = append(docs, draft)
		}
	}
	return docs, nil
}

func less(a, b domain.RawDocument, orderings []domain.Ordering) bool {
	for _, o := range orderings {
		x, y := orderingValue(a, o.Field), orderingValue(b, o.Field)
		if x.Equal(y) {
			continue
		}
		if o.Desc {
			return x.After(y)
		}
		return x.Before(y)
	}
	return false
}

func orderingValue(d domain.RawDocument, field string) time.Time {
	var raw *string
	switch field {
	case domain.FieldFirstPublicationDate:
		raw = d.FirstPublicationDate
	case domain.FieldLastPublicationDate:
		raw = d.LastPublicationDate
	}
	if raw == nil {
		return time.Time{}
	}
	t, err := domain.ParseTimestamp(*raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func preceding(docs []domain.RawDocument, id string) []domain.RawDocument {
	for i, d := range docs {
		if d.ID != id {
			continue
		}
		out := make([]domain.RawDocument, 0, i)
		for j := i - 1; j >= 0; j-- {
			out = append(out, docs[j])
		}
		return out
	}
	return nil
}

func paginate(docs []domain.RawDocument, q domain.Query) *domain.SearchResponse {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	total := len(docs)
	pages := (total + size - 1) / size

	resp := &domain.SearchResponse{
		Page:             page,
		ResultsPerPage:   size,
		TotalResultsSize: total,
		TotalPages:       pages,
		Results:          []domain.RawDocument{},
	}

	from := (page - 1) * size
	if from < total {
		to := min(from+size, total)
		resp.Results = append(resp.Results, docs[from:to]...)
	}
	if page < pages {
		next := q
		next.Page = page + 1
		next.PageSize = size
		cursor := encodeCursor(next)
		resp.NextPage = &cursor
	}
	return resp
}

func encodeCursor(q domain.Query) string {
	raw, _ := json.Marshal(q)
	u := url.URL{
		Scheme:   memoryScheme,
		Host:     "repository",
		Path:     searchPath,
		RawQuery: url.Values{"c": {base64.RawURLEncoding.EncodeToString(raw)}}.Encode(),
	}
	return u.String()
}

func decodeCursor(cursor string) (domain.Query, error) {
	var q domain.Query
	u, err := url.Parse(cursor)
	if err != nil {
		return q, err
	}
	if u.Scheme != memoryScheme || !strings.HasSuffix(u.Path, searchPath) {
		return q, fmt.Errorf("not a repository cursor")
	}
	raw, err := base64.RawURLEncoding.DecodeString(u.Query().Get("c"))
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, err
	}
	if q.Page < 2 {
		return q, fmt.Errorf("cursor page out of range")
	}
	return q, nil
}
