package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "/"},
		{name: "root", in: "/", want: "/"},
		{name: "segment", in: "files", want: "/files"},
		{name: "leading and trailing slash", in: "/files/", want: "/files"},
		{name: "scheme relative input", in: "//static", want: "/static"},
		{name: "multiple slashes", in: "///files//", want: "/files"},
		{name: "absolute url with path", in: "https://example.test/filelist/", want: "/filelist"},
		{name: "absolute url with no path", in: "https://example.test", want: "/"},
		{name: "path with query and fragment", in: "/files/?q=1#top", want: "/files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBasePath(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizeBasePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault(filepath.Join(dir, "nope.json"), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Fatalf("data dir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.PagesDir != filepath.Join(dir, "pages") {
		t.Fatalf("pages dir = %q", cfg.PagesDir)
	}
	if cfg.Port != 7340 || cfg.BasePath != "/" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSaveAndLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg", "config.json")
	cfg := Default(dir)
	cfg.Paths = "/srv/files/\nA> files\nW> https://files.example/"
	cfg.Extensions = "pdf,txt"
	cfg.BasePath = "docs/"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Fatalf("config mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadOrDefault(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Paths != cfg.Paths || got.Extensions != "pdf,txt" || got.BasePath != "/docs" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: 9000\nlog_level: debug\npaths: |\n  /srv/a/\n  A> a\n  /srv/b/\ndefaults: showsize=1&showdate=1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadOrDefault(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9000 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Paths != "/srv/a/\nA> a\n/srv/b/\n" {
		t.Fatalf("paths = %q", cfg.Paths)
	}
	if cfg.Defaults != "showsize=1&showdate=1" {
		t.Fatalf("defaults = %q", cfg.Defaults)
	}
}

func TestSaveYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	cfg := Default(dir)
	cfg.Paths = "/srv/a/"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "paths: /srv/a/") {
		t.Fatalf("expected yaml output, got:\n%s", b)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "https without cert", mutate: func(c *Config) { c.HTTPS = true }},
		{name: "plain password", mutate: func(c *Config) { c.PasswordHash = "hunter2" }},
		{name: "argon hash", mutate: func(c *Config) { c.PasswordHash = "$argon2id$v=19$m=1,t=1,p=1$a$b" }, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	got, err := ConfigPathFromEnv()
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got != "/tmp/custom.yaml" {
		t.Fatalf("got %q", got)
	}
}
