package internal

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/folio/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	cfg := HTTPConfig{Port: 4000}
	if cfg.Address() != ":4000" {
		t.Errorf("address = %q", cfg.Address())
	}
}

func TestSiteConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig().Site
	cfg.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty root should fail")
	}
}

func TestSiteConfig_AbsoluteWorksDirRejected(t *testing.T) {
	cfg := NewDefaultConfig().Site
	cfg.WorksDir = "/etc"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("absolute works dir should fail")
	}
	if !strings.Contains(err.Error(), "relative") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSiteConfig_DirectoryDefaults(t *testing.T) {
	cfg := SiteConfig{Root: "site"}
	if got := cfg.Templates(); got != filepath.Join("site", "templates") {
		t.Errorf("templates = %q", got)
	}
	cfg.StaticDir = "/srv/static"
	if got := cfg.Static(); got != "/srv/static" {
		t.Errorf("static = %q", got)
	}
}

func TestRedirectTable(t *testing.T) {
	tests := []struct {
		name    string
		table   RedirectTable
		wantErr bool
	}{
		{"empty", RedirectTable{}, false},
		{"valid", RedirectTable{"cv": "https://example.com/cv.pdf"}, false},
		{"relative target", RedirectTable{"cv": "/cv.pdf"}, true},
		{"ftp target", RedirectTable{"cv": "ftp://example.com/cv"}, true},
		{"nested key", RedirectTable{"a/b": "https://example.com"}, true},
		{"reserved key", RedirectTable{"works": "https://example.com"}, true},
		{"empty target", RedirectTable{"cv": ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullConfig_RedirectValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Redirects = RedirectTable{"x": "not a url"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch redirect error")
	}
}

func TestConfigFromYAML(t *testing.T) {
	t.Setenv("FOLIO_TEST_PORT", "")
	data := []byte(`
app:
  log_level: debug
  dev: true
  http:
    port: ${FOLIO_TEST_PORT:-4000}
site:
  root: ./site
  works_dir: works
  recent_log: recent.txt
  title: Jane Doe
redirects:
  cv: https://example.com/cv.pdf
sqlite:
  path: ./folio.db
`)
	cfg := NewDefaultConfig()
	if err := pkgconfig.Decode(data, cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || !cfg.App.Dev || cfg.App.HTTP.Port != 4000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Site.Title != "Jane Doe" || cfg.Redirects["cv"] != "https://example.com/cv.pdf" {
		t.Errorf("site = %+v, redirects = %v", cfg.Site, cfg.Redirects)
	}
}
