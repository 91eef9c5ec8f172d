package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/collector"
	"github.com/qepting91/spacetraveling/internal/config"
	"github.com/qepting91/spacetraveling/internal/dashboard"
	"github.com/qepting91/spacetraveling/internal/domain"
	"github.com/qepting91/spacetraveling/internal/storage"
	"github.com/qepting91/spacetraveling/internal/web"
)

func newBuildCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page into a static site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Build.OutputDir = outDir
			}

			repo, closeRepo, err := collector.NewRepository(cfg, logger)
			if err != nil {
				return err
			}
			defer closeRepo()

			report, err := buildSite(cmd.Context(), blog.NewService(repo, logger), cfg.Site, cfg.Build.OutputDir, logger)
			if err != nil {
				return err
			}
			logger.Info("Build complete", "dir", cfg.Build.OutputDir, "pages", report.Pages, "posts", report.Posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides BUILD_OUTPUT_DIR)")
	return cmd
}

type buildReport struct {
	Pages int
	Posts int
}

// pagePath is where listing page n lives; page 1 is the home page.
func pagePath(n int) string {
	return fmt.Sprintf("/page/%d.json", n)
}

// buildSite writes index.html, one JSON file per further listing page,
// post/<uid>/index.html for every post, stats.html and a posts.ndjson manifest.
func buildSite(ctx context.Context, svc *blog.Service, site config.SiteConfig, outDir string, logger *slog.Logger) (buildReport, error) {
	var report buildReport

	renderer, err := web.NewRenderer()
	if err != nil {
		return report, err
	}
	writer := &storage.SiteWriter{Dir: outDir}

	// 1. Listing pages
	var summaries []domain.Post
	page, err := svc.ListPosts(ctx, site.PageSize, "", "")
	if err != nil {
		return report, err
	}
	for n := 1; ; n++ {
		summaries, _ = blog.MergePage(summaries, page)

		next := ""
		if page.HasNext() {
			next = pagePath(n + 1)
		}

		var buf bytes.Buffer
		rel := "index.html"
		if n == 1 {
			err = renderer.Home(&buf, web.NewHomeView(site, page, next, false))
		} else {
			rel = pagePath(n)[1:]
			err = json.NewEncoder(&buf).Encode(web.NewListResponse(page.Results, next))
		}
		if err != nil {
			return report, fmt.Errorf("render listing page %d: %w", n, err)
		}
		if err := writer.WriteFile(rel, buf.Bytes()); err != nil {
			return report, err
		}
		report.Pages++

		if !page.HasNext() {
			break
		}
		if page, err = svc.ListPosts(ctx, site.PageSize, page.NextPageCursor, ""); err != nil {
			return report, err
		}
	}

	// 2. Post pages, feeding the manifest as they are written
	manifest := &storage.ManifestWriter{FilePath: filepath.Join(outDir, "posts.ndjson")}
	statsCh := make(chan domain.PostStat, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go manifest.Start(&wg, statsCh)

	stats, err := buildPosts(ctx, svc, renderer, writer, site, summaries, statsCh, logger)
	close(statsCh)
	wg.Wait()
	if err != nil {
		return report, err
	}
	if err := manifest.Err(); err != nil {
		return report, fmt.Errorf("write manifest: %w", err)
	}
	report.Posts = len(stats)

	// 3. Dashboard
	var buf bytes.Buffer
	if err := dashboard.Render(&buf, site.Title, stats); err != nil {
		return report, fmt.Errorf("render stats: %w", err)
	}
	return report, writer.WriteFile("stats.html", buf.Bytes())
}

func buildPosts(
	ctx context.Context,
	svc *blog.Service,
	renderer *web.Renderer,
	writer *storage.SiteWriter,
	site config.SiteConfig,
	summaries []domain.Post,
	out chan<- domain.PostStat,
	logger *slog.Logger,
) ([]domain.PostStat, error) {
	stats := make([]domain.PostStat, 0, len(summaries))
	for _, summary := range summaries {
		post, err := svc.GetPost(ctx, summary.UID, "")
		if err != nil {
			return nil, err
		}
		adj, err := svc.Neighbours(ctx, post, "")
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := renderer.Post(&buf, web.NewPostView(site, post, adj, false)); err != nil {
			return nil, fmt.Errorf("render post %s: %w", post.UID, err)
		}
		if err := writer.WriteFile(path.Join("post", post.UID, "index.html"), buf.Bytes()); err != nil {
			return nil, err
		}

		stat := blog.Stat(post)
		stats = append(stats, stat)
		out <- stat
		logger.Debug("Rendered post", "uid", post.UID, "reading_minutes", stat.ReadingMinutes)
	}
	return stats, nil
}
