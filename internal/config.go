package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Site      SiteConfig        `yaml:"site"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Redirects RedirectTable     `yaml:"redirects"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Redirects.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Dev re-parses templates on every request and enables live reload.
	Dev  bool       `yaml:"dev"`
	HTTP HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig locates the site's content. WorksDir and RecentLog are relative
// to Root; TemplatesDir and StaticDir default to directories under Root.
type SiteConfig struct {
	Root         string `yaml:"root"`
	WorksDir     string `yaml:"works_dir"`
	RecentLog    string `yaml:"recent_log"`
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.WorksDir, validation.Required, validation.By(relativePath)),
		validation.Field(&c.RecentLog, validation.Required, validation.By(relativePath)),
		validation.Field(&c.Title, validation.Required),
	)
}

// Templates returns the templates directory.
func (c *SiteConfig) Templates() string {
	if c.TemplatesDir != "" {
		return c.TemplatesDir
	}
	return filepath.Join(c.Root, "templates")
}

// Static returns the static assets directory.
func (c *SiteConfig) Static() string {
	if c.StaticDir != "" {
		return c.StaticDir
	}
	return filepath.Join(c.Root, "static")
}

func relativePath(value any) error {
	s, _ := value.(string)
	if filepath.IsAbs(s) {
		return errors.New("must be relative to the site root")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedirectTable maps short keys to absolute URLs served as 302 redirects.
type RedirectTable map[string]string

// Validate checks that every key is a single path segment and every target
// an absolute http(s) URL.
func (t RedirectTable) Validate() error {
	for key, target := range t {
		if err := validation.Validate(key, validation.Required, validation.By(redirectKey)); err != nil {
			return fmt.Errorf("redirects: key %q: %w", key, err)
		}
		if err := validation.Validate(target, validation.Required, validation.By(absoluteURL)); err != nil {
			return fmt.Errorf("redirects: %s: %w", key, err)
		}
	}
	return nil
}

// Keys that would shadow a site route.
var reservedKeys = map[string]bool{
	"works": true, "keywords": true, "api": true, "static": true, "health": true, "metrics": true,
}

func redirectKey(value any) error {
	s, _ := value.(string)
	for _, r := range s {
		if r == '/' || r == '?' || r == '#' {
			return errors.New("must be a single path segment")
		}
	}
	if reservedKeys[s] {
		return errors.New("is reserved")
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Root:      "./site",
			WorksDir:  "works",
			RecentLog: "recent.txt",
			Title:     "Portfolio",
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Redirects: RedirectTable{},
	}
}
