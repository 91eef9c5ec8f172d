package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Span marks a styled or linked range of a rich-text block.
// Start and End are offsets into Block.Text as counted by the content repository.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
}

// Block is one structured text block in the repository's rich-text format.
type Block struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Spans []Span `json:"spans,omitempty"`
	URL   string `json:"url,omitempty"`
	Alt   string `json:"alt,omitempty"`
}

// RichText is an ordered sequence of blocks.
type RichText []Block

// Section is one heading plus its body inside a post.
type Section struct {
	Heading string   `json:"heading"`
	Body    RichText `json:"body"`
}

// Post is the normalized entity used for rendering.
type Post struct {
	ID                   string     `json:"id"`
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	LastPublicationDate  *time.Time `json:"last_publication_date,omitempty"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle,omitempty"`
	Author               string     `json:"author"`
	BannerURL            string     `json:"banner_url,omitempty"`
	Content              []Section  `json:"content,omitempty"`
}

// PostsPage is one page of list results. An empty NextPageCursor means the
// listing is exhausted.
type PostsPage struct {
	Results        []Post `json:"results"`
	NextPageCursor string `json:"next_page,omitempty"`
}

func (p PostsPage) HasNext() bool {
	return p.NextPageCursor != ""
}

// RawDocument is a document as the content repository returns it.
type RawDocument struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// SearchResponse is the envelope of a repository search.
type SearchResponse struct {
	Page             int           `json:"page"`
	ResultsPerPage   int           `json:"results_per_page"`
	TotalResultsSize int           `json:"total_results_size"`
	TotalPages       int           `json:"total_pages"`
	NextPage         *string       `json:"next_page"`
	Results          []RawDocument `json:"results"`
}

// Ordering fields understood by the repository.
const (
	FieldFirstPublicationDate = "document.first_publication_date"
	FieldLastPublicationDate  = "document.last_publication_date"
)

type Ordering struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Query is a predicate-based repository query. Zero values mean "not set":
// an empty Ref selects the published master ref, Page 0 means the first page.
type Query struct {
	DocumentType string     `json:"type"`
	UID          string     `json:"uid,omitempty"`
	PageSize     int        `json:"page_size,omitempty"`
	Page         int        `json:"page,omitempty"`
	Orderings    []Ordering `json:"orderings,omitempty"`
	After        string     `json:"after,omitempty"`
	Ref          string     `json:"ref,omitempty"`
}

// Repository defines the interface for reading from the content repository.
type Repository interface {
	Search(ctx context.Context, q Query) (*SearchResponse, error)
	// Next follows a next_page cursor returned by an earlier search.
	Next(ctx context.Context, cursor string) (*SearchResponse, error)
}

// PostStat is the per-post record behind the stats dashboard and the build
// manifest.
type PostStat struct {
	UID            string     `json:"uid"`
	Title          string     `json:"title"`
	Author         string     `json:"author"`
	Published      *time.Time `json:"first_publication_date,omitempty"`
	Words          int        `json:"words"`
	ReadingMinutes int        `json:"reading_minutes"`
}
