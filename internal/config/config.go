// Package config loads service configuration from an optional YAML file,
// .env files and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModePrismic = "prismic"
	ModeMock    = "mock"
)

type Config struct {
	Content ContentConfig `mapstructure:"content"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Log     LogConfig     `mapstructure:"log"`
	Build   BuildConfig   `mapstructure:"build"`
}

type ContentConfig struct {
	Mode        string        `mapstructure:"mode"`
	Endpoint    string        `mapstructure:"endpoint"`
	AccessToken string        `mapstructure:"access_token"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
}

type CacheConfig struct {
	// An empty address disables the query cache.
	RedisAddress  string        `mapstructure:"redis_address"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SiteConfig struct {
	Title         string `mapstructure:"title"`
	PageSize      int    `mapstructure:"page_size"`
	CommentsRepo  string `mapstructure:"comments_repo"`
	CommentsTheme string `mapstructure:"comments_theme"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BuildConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

var envBindings = map[string]string{
	"content.mode":         "CONTENT_MODE",
	"content.endpoint":     "PRISMIC_API_ENDPOINT",
	"content.access_token": "PRISMIC_ACCESS_TOKEN",
	"content.user_agent":   "PRISMIC_USER_AGENT",
	"content.timeout":      "PRISMIC_TIMEOUT",
	"content.rate_limit":   "PRISMIC_RATE_LIMIT",
	"cache.redis_address":  "REDIS_ADDRESS",
	"cache.redis_password": "REDIS_PASSWORD",
	"cache.redis_db":       "REDIS_DB",
	"cache.ttl":            "CACHE_TTL",
	"server.port":          "PORT",
	"site.title":           "SITE_TITLE",
	"site.page_size":       "SITE_PAGE_SIZE",
	"site.comments_repo":   "SITE_COMMENTS_REPO",
	"site.comments_theme":  "SITE_COMMENTS_THEME",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
	"build.output_dir":     "BUILD_OUTPUT_DIR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("content.mode", ModePrismic)
	v.SetDefault("content.user_agent", "spacetraveling/1.0")
	v.SetDefault("content.timeout", 10*time.Second)
	v.SetDefault("content.rate_limit", 5.0)
	v.SetDefault("cache.ttl", 30*time.Minute)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("site.title", "spacetraveling")
	v.SetDefault("site.page_size", 20)
	v.SetDefault("site.comments_theme", "github-dark")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("build.output_dir", "public")
}

// Load reads configuration. path may be empty, in which case ./config.yaml is
// used when present.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Content.Mode {
	case ModePrismic:
		if c.Content.Endpoint == "" {
			return errors.New("PRISMIC_API_ENDPOINT is required in prismic mode")
		}
	case ModeMock:
	default:
		return fmt.Errorf("unknown CONTENT_MODE: %s (use 'prismic' or 'mock')", c.Content.Mode)
	}
	if c.Site.PageSize < 1 {
		return fmt.Errorf("site.page_size must be at least 1, got %d", c.Site.PageSize)
	}
	if c.Cache.RedisAddress != "" && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when redis is configured")
	}
	return nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Missing files are ignored and existing variables are never overwritten.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
