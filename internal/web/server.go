// Package web serves the blog pages, the load-more API and the stats
// dashboard.
package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/config"
	"github.com/qepting91/spacetraveling/internal/dashboard"
	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/metrics"
)

// PreviewCookie carries the preview ref set by the repository's preview flow.
const PreviewCookie = "io.prismic.preview"

type Server struct {
	svc      *blog.Service
	site     config.SiteConfig
	renderer *Renderer
	logger   *slog.Logger
	engine   *gin.Engine
}

func NewServer(svc *blog.Service, site config.SiteConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{svc: svc, site: site, renderer: renderer, logger: logger}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), LoggerMiddleware(logger), metrics.Middleware())
	engine.GET("/", s.home)
	engine.GET("/post/:uid", s.post)
	engine.GET("/api/posts", s.listPosts)
	engine.GET("/api/exit-preview", s.exitPreview)
	engine.GET("/stats", s.stats)
	engine.GET("/health", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine = engine

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func previewRef(c *gin.Context) string {
	ref, err := c.Cookie(PreviewCookie)
	if err != nil {
		return ""
	}
	return ref
}

func (s *Server) home(c *gin.Context) {
	ref := previewRef(c)
	page, err := s.svc.ListPosts(c.Request.Context(), s.site.PageSize, "", ref)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.renderer.Home(buf, NewHomeView(s.site, page, CursorURL(page.NextPageCursor), ref != ""))
	})
}

func (s *Server) post(c *gin.Context) {
	ctx := c.Request.Context()
	ref := previewRef(c)

	post, err := s.svc.GetPost(ctx, c.Param("uid"), ref)
	if err != nil {
		s.fail(c, err)
		return
	}
	adj, err := s.svc.Neighbours(ctx, post, ref)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.renderer.Post(buf, NewPostView(s.site, post, adj, ref != ""))
	})
}

func (s *Server) listPosts(c *gin.Context) {
	cursor := c.Query("cursor")
	if cursor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cursor is required"})
		return
	}

	page, err := s.svc.ListPosts(c.Request.Context(), s.site.PageSize, cursor, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewListResponse(page.Results, CursorURL(page.NextPageCursor)))
}

func (s *Server) exitPreview(c *gin.Context) {
	c.SetCookie(PreviewCookie, "", -1, "/", "", false, false)
	c.Redirect(http.StatusTemporaryRedirect, "/")
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()

	summaries, err := s.svc.AllPosts(ctx, s.site.PageSize, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	stats := make([]domain.PostStat, 0, len(summaries))
	for _, summary := range summaries {
		post, err := s.svc.GetPost(ctx, summary.UID, "")
		if err != nil {
			s.fail(c, err)
			return
		}
		stats = append(stats, blog.Stat(post))
	}

	s.html(c, http.StatusOK, func(buf *bytes.Buffer) error {
		return dashboard.Render(buf, s.site.Title, stats)
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// html renders into a buffer first so a template error never leaves a
// half-written page behind.
func (s *Server) html(c *gin.Context, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		notFound  *domain.NotFoundError
		malformed *domain.MalformedDocumentError
		fetchErr  *domain.FetchError
	)
	switch {
	case errors.As(err, &notFound):
		s.html(c, http.StatusNotFound, func(buf *bytes.Buffer) error {
			return s.renderer.NotFound(buf, NotFoundView{SiteTitle: s.site.Title, UID: notFound.UID, Preview: previewRef(c) != ""})
		})
	case errors.Is(err, domain.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
	case errors.As(err, &malformed):
		c.String(http.StatusInternalServerError, "post unavailable")
	case errors.As(err, &fetchErr):
		c.String(http.StatusBadGateway, "content repository unavailable")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
