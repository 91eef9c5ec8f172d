package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	searchPath = "/documents/search"
	// The master ref moves on every publish; re-read it at most this often.
	refTTL = 5 * time.Second
)

type PrismicConfig struct {
	Endpoint          string
	AccessToken       string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// PrismicClient talks to the Prismic REST v2 API.
type PrismicClient struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	endpoint    *url.URL
	accessToken string
	userAgent   string

	mu         sync.Mutex
	masterRef  string
	refFetched time.Time
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

func NewPrismicClient(cfg PrismicConfig) (*PrismicClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("prismic endpoint is required")
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse prismic endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("prismic endpoint must be an absolute URL: %q", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &PrismicClient{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, 1),
		endpoint:    endpoint,
		accessToken: cfg.AccessToken,
		userAgent:   cfg.UserAgent,
	}, nil
}

func (pc *PrismicClient) Search(ctx context.Context, q domain.Query) (*domain.SearchResponse, error) {
	ref := q.Ref
	if ref == "" {
		var err error
		if ref, err = pc.ref(ctx); err != nil {
			return nil, err
		}
	}

	var out domain.SearchResponse
	if err := pc.get(ctx, "search", pc.searchURL(ref, q), &out); err != nil {
		return nil, err
	}
	out.NextPage = stripToken(out.NextPage)
	return &out, nil
}

// Next follows a next_page URL. Only URLs pointing at this repository's search
// endpoint are accepted. Cursors never carry the access token; it is added
// back here.
func (pc *PrismicClient) Next(ctx context.Context, cursor string) (*domain.SearchResponse, error) {
	u, err := url.Parse(cursor)
	if err != nil || cursor == "" {
		return nil, &domain.FetchError{Op: "next", Err: domain.ErrInvalidCursor}
	}
	if u.Scheme != pc.endpoint.Scheme || u.Host != pc.endpoint.Host || u.Path != pc.endpoint.Path+searchPath {
		return nil, &domain.FetchError{Op: "next", URL: redact(u), Err: domain.ErrInvalidCursor}
	}

	if pc.accessToken != "" {
		params := u.Query()
		params.Set("access_token", pc.accessToken)
		u.RawQuery = params.Encode()
	}

	var out domain.SearchResponse
	if err := pc.get(ctx, "next", u.String(), &out); err != nil {
		return nil, err
	}
	out.NextPage = stripToken(out.NextPage)
	return &out, nil
}

// IsPreviewCursor reports whether cursor was issued under a ref other than
// the current master ref. When the master ref cannot be read the cursor is
// treated as a preview.
func (pc *PrismicClient) IsPreviewCursor(ctx context.Context, cursor string) bool {
	u, err := url.Parse(cursor)
	if err != nil {
		return true
	}
	master, err := pc.ref(ctx)
	if err != nil {
		return true
	}
	return u.Query().Get("ref") != master
}

func (pc *PrismicClient) ref(ctx context.Context) (string, error) {
	pc.mu.Lock()
	if pc.masterRef != "" && time.Since(pc.refFetched) < refTTL {
		ref := pc.masterRef
		pc.mu.Unlock()
		return ref, nil
	}
	pc.mu.Unlock()

	u := *pc.endpoint
	if pc.accessToken != "" {
		u.RawQuery = url.Values{"access_token": {pc.accessToken}}.Encode()
	}

	var info apiInfo
	if err := pc.get(ctx, "ref", u.String(), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			pc.mu.Lock()
			pc.masterRef, pc.refFetched = r.Ref, time.Now()
			pc.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", &domain.FetchError{Op: "ref", URL: redact(&u), Err: fmt.Errorf("no master ref in api response")}
}

func (pc *PrismicClient) searchURL(ref string, q domain.Query) string {
	params := url.Values{}
	params.Set("ref", ref)
	params.Set("q", predicates(q))
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if len(q.Orderings) > 0 {
		params.Set("orderings", orderings(q.Orderings))
	}
	// The resolver reads after as "documents preceding the given one in the
	// requested ordering, nearest first" (see MemoryRepository). Prismic
	// receives the id unchanged.
	if q.After != "" {
		params.Set("after", q.After)
	}
	if pc.accessToken != "" {
		params.Set("access_token", pc.accessToken)
	}

	u := *pc.endpoint
	u.Path += searchPath
	u.RawQuery = params.Encode()
	return u.String()
}

func (pc *PrismicClient) get(ctx context.Context, op, rawURL string, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRepository(op, start, err) }()

	if err := pc.limiter.Wait(ctx); err != nil {
		return &domain.FetchError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &domain.FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if pc.userAgent != "" {
		req.Header.Set("User-Agent", pc.userAgent)
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{Op: op, URL: redact(req.URL), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.FetchError{Op: op, URL: redact(req.URL), StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.FetchError{Op: op, URL: redact(req.URL), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// predicates renders the query filters in the repository's predicate syntax,
// e.g. [[at(document.type,"post")][at(my.post.uid,"hello")]].
func predicates(q domain.Query) string {
	var b strings.Builder
	b.WriteString("[")
	if q.DocumentType != "" {
		fmt.Fprintf(&b, "[at(document.type,%s)]", strconv.Quote(q.DocumentType))
	}
	if q.UID != "" {
		fmt.Fprintf(&b, "[at(my.%s.uid,%s)]", q.DocumentType, strconv.Quote(q.UID))
	}
	b.WriteString("]")
	return b.String()
}

func orderings(list []domain.Ordering) string {
	fields := make([]string, 0, len(list))
	for _, o := range list {
		if o.Desc {
			fields = append(fields, o.Field+" desc")
		} else {
			fields = append(fields, o.Field)
		}
	}
	return "[" + strings.Join(fields, ",") + "]"
}

// stripToken removes the access token from a next_page URL before it is
// handed out as a cursor.
func stripToken(next *string) *string {
	if next == nil {
		return nil
	}
	u, err := url.Parse(*next)
	if err != nil {
		return next
	}
	params := u.Query()
	if !params.Has("access_token") {
		return next
	}
	params.Del("access_token")
	u.RawQuery = params.Encode()
	s := u.String()
	return &s
}

// redact drops the access token so URLs can be logged.
func redact(u *url.URL) string {
	c := *u
	params := c.Query()
	if params.Has("access_token") {
		params.Set("access_token", "REDACTED")
		c.RawQuery = params.Encode()
	}
	return c.String()
}
