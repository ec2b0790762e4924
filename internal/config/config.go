package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "FILELIST_CONFIG"

type Config struct {
	Bind     string `json:"bind" yaml:"bind"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	BasePath string `json:"base_path" yaml:"base_path"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`
	HTTPS    bool   `json:"https" yaml:"https"`
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`

	// Paths lists the allowed roots, one per line, each optionally followed
	// by "A> alias" and "W> web template" lines.
	Paths      string `json:"paths" yaml:"paths"`
	Extensions string `json:"extensions" yaml:"extensions"`
	Defaults   string `json:"defaults" yaml:"defaults"`
	IgnoreFile string `json:"ignore_file" yaml:"ignore_file"`

	Username     string `json:"username" yaml:"username"`
	PasswordHash string `json:"password_hash" yaml:"password_hash"`
}

func DefaultPaths() (configPath, dataDir string, err error) {
	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("resolve user config dir: %w", err)
	}
	var dataRoot string
	switch runtime.GOOS {
	case "windows":
		dataRoot = cfgRoot
	default:
		if p, derr := os.UserHomeDir(); derr == nil {
			dataRoot = filepath.Join(p, ".local", "share")
		} else {
			dataRoot = cfgRoot
		}
	}
	configPath = filepath.Join(cfgRoot, "filelist", "config.json")
	dataDir = filepath.Join(dataRoot, "filelist")
	return configPath, dataDir, nil
}

func Default(dataDir string) Config {
	return Config{
		Bind:       "127.0.0.1",
		Host:       "",
		Port:       7340,
		BasePath:   "/",
		LogLevel:   "info",
		DataDir:    dataDir,
		PagesDir:   filepath.Join(dataDir, "pages"),
		HTTPS:      false,
		Paths:      "",
		Extensions: "",
		Defaults:   "",
	}
}

// NormalizeBasePath reduces user input to a rooted path without a trailing
// slash. Full URLs contribute only their path; queries and fragments are
// dropped.
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	segs := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

func isYAML(configPath string) bool {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func LoadOrDefault(configPath, dataDirOverride string) (Config, error) {
	_, defaultData, err := DefaultPaths()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(defaultData)
	if dataDirOverride != "" {
		cfg = Default(dataDirOverride)
	}

	b, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if isYAML(configPath) {
		err = yaml.Unmarshal(b, &cfg)
	} else {
		err = json.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}
	if cfg.PagesDir == "" {
		cfg.PagesDir = filepath.Join(cfg.DataDir, "pages")
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders cfg in the format implied by configPath's extension.
func Encode(configPath string, cfg Config) ([]byte, error) {
	if isYAML(configPath) {
		return yaml.Marshal(cfg)
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// Save validates cfg and writes it under an exclusive lock so concurrent
// `filelist config` runs cannot interleave.
func Save(configPath string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	buf, err := Encode(configPath, cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return lockAndWrite(configPath, buf)
}

func Validate(cfg Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.HTTPS && (cfg.CertFile == "" || cfg.KeyFile == "") {
		return fmt.Errorf("https enabled but cert/key missing")
	}
	if cfg.PasswordHash != "" && !strings.HasPrefix(cfg.PasswordHash, "$argon2id$") {
		return fmt.Errorf("password_hash must be an argon2id hash; set it with `filelist passwd`")
	}
	return nil
}

func ConfigPathFromEnv() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	cfgPath, _, err := DefaultPaths()
	return cfgPath, err
}
