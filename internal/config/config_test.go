package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/spacetraveling/internal/config"
)

func TestLoad_DefaultsWithMockMode(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("CONTENT_MODE", "mock")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.ModeMock, cfg.Content.Mode)
	assert.Equal(t, 10*time.Second, cfg.Content.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Site.PageSize)
	assert.Equal(t, "spacetraveling", cfg.Site.Title)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "public", cfg.Build.OutputDir)
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
content:
  mode: prismic
  endpoint: https://from-file.cdn.prismic.io/api/v2
  timeout: 3s
site:
  page_size: 5
  comments_repo: owner/repo
cache:
  ttl: 10m
`), 0o600))

	t.Setenv("ENV_FILE", filepath.Join(dir, "absent.env"))
	t.Setenv("PRISMIC_API_ENDPOINT", "https://from-env.cdn.prismic.io/api/v2")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.cdn.prismic.io/api/v2", cfg.Content.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Content.Timeout)
	assert.Equal(t, 5, cfg.Site.PageSize)
	assert.Equal(t, "owner/repo", cfg.Site.CommentsRepo)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SITE_PAGE_SIZE=7\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Setenv("CONTENT_MODE", "mock")
	t.Cleanup(func() { os.Unsetenv("SITE_PAGE_SIZE") })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Site.PageSize)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Content: config.ContentConfig{Mode: config.ModePrismic, Endpoint: "https://x.prismic.io/api/v2"},
			Site:    config.SiteConfig{PageSize: 20},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Content.Endpoint = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Content.Mode = "contentful"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Site.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cache.RedisAddress = "localhost:6379"
	assert.Error(t, cfg.Validate())
}
