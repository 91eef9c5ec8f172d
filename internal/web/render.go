package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/config"
	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

// ListItem is a post as shown in the home listing and the load-more API.
type ListItem struct {
	UID      string `json:"uid"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Date     string `json:"date"`
}

// ListResponse is the load-more payload. Next is the URL of the following
// page, empty when there is none.
type ListResponse struct {
	Results []ListItem `json:"results"`
	Next    string     `json:"next"`
}

func NewListResponse(posts []domain.Post, next string) ListResponse {
	items := make([]ListItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, ListItem{
			UID:      p.UID,
			URL:      PostPath(p.UID),
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
			Date:     formatDate(p.FirstPublicationDate),
		})
	}
	return ListResponse{Results: items, Next: next}
}

func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid)
}

// CursorURL is the load-more URL served by the API for a repository cursor.
func CursorURL(cursor string) string {
	if cursor == "" {
		return ""
	}
	return "/api/posts?cursor=" + url.QueryEscape(cursor)
}

type HomeView struct {
	SiteTitle string
	Preview   bool
	Posts     []ListItem
	Next      string
}

type navLink struct {
	Title string
	URL   string
}

type sectionView struct {
	Heading string
	HTML    template.HTML
}

type commentsView struct {
	Repo  string
	Theme string
}

type PostView struct {
	SiteTitle   string
	Preview     bool
	Title       string
	BannerURL   string
	Author      string
	Published   string
	Edited      string
	ReadingTime string
	Sections    []sectionView
	Previous    *navLink
	Next        *navLink
	Comments    *commentsView
}

type NotFoundView struct {
	SiteTitle string
	Preview   bool
	UID       string
}

func NewHomeView(site config.SiteConfig, page domain.PostsPage, next string, preview bool) HomeView {
	return HomeView{
		SiteTitle: site.Title,
		Preview:   preview,
		Posts:     NewListResponse(page.Results, "").Results,
		Next:      next,
	}
}

func NewPostView(site config.SiteConfig, post domain.Post, adj blog.Adjacent, preview bool) PostView {
	v := PostView{
		SiteTitle:   site.Title,
		Preview:     preview,
		Title:       post.Title,
		BannerURL:   post.BannerURL,
		Author:      post.Author,
		Published:   formatDate(post.FirstPublicationDate),
		ReadingTime: readingLabel(blog.EstimateReadingTime(post.Content)),
	}

	if first, last := post.FirstPublicationDate, post.LastPublicationDate; first != nil && last != nil && !last.Equal(*first) {
		v.Edited = formatDateTime(last)
	}
	for _, s := range post.Content {
		v.Sections = append(v.Sections, sectionView{Heading: s.Heading, HTML: richtext.AsHTML(s.Body)})
	}
	if adj.Previous != nil {
		v.Previous = &navLink{Title: adj.Previous.Title, URL: PostPath(adj.Previous.UID)}
	}
	if adj.Next != nil {
		v.Next = &navLink{Title: adj.Next.Title, URL: PostPath(adj.Next.UID)}
	}
	if site.CommentsRepo != "" && !preview {
		v.Comments = &commentsView{Repo: site.CommentsRepo, Theme: site.CommentsTheme}
	}
	return v
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("pages").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Home(w io.Writer, v HomeView) error {
	return r.tmpl.ExecuteTemplate(w, "home.html", v)
}

func (r *Renderer) Post(w io.Writer, v PostView) error {
	return r.tmpl.ExecuteTemplate(w, "post.html", v)
}

func (r *Renderer) NotFound(w io.Writer, v NotFoundView) error {
	return r.tmpl.ExecuteTemplate(w, "notfound.html", v)
}
