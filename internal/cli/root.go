package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewsawatzky/filelist/internal/auth"
	"github.com/matthewsawatzky/filelist/internal/config"
	"github.com/matthewsawatzky/filelist/internal/crawler"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/server"
	"github.com/matthewsawatzky/filelist/internal/util"
	"github.com/matthewsawatzky/filelist/internal/wiki"
)

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootState struct {
	configPath string
	dataDir    string
}

type serveFlags struct {
	host     string
	port     int
	bind     string
	basePath string
	logLevel string
	https    bool
	cert     string
	key      string
	pagesDir string
	paths    []string
	noQR     bool
}

func NewRootCmd(v VersionInfo) *cobra.Command {
	state := &rootState{}
	serve := &serveFlags{}

	cmd := &cobra.Command{
		Use:           "filelist",
		Short:         "Publish directory listings in markdown pages and serve the listed files",
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, state, serve, v)
		},
	}
	cmd.PersistentFlags().StringVar(&state.configPath, "config", "", "config path, .json or .yaml (default: platform user config)")
	cmd.PersistentFlags().StringVar(&state.dataDir, "data-dir", "", "data directory for the SQLite audit log and pages")
	addServeFlags(cmd, serve)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pages and downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, state, serve, v)
		},
	}
	addServeFlags(serveCmd, serve)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive first-run setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, state)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print config location and effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", cfgPath)
			fmt.Fprintf(out, "Data dir: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "Pages dir: %s\n", cfg.PagesDir)
			if err := config.Validate(cfg); err != nil {
				fmt.Fprintf(out, "Validation: failed (%v)\n", err)
			} else {
				fmt.Fprintln(out, "Validation: ok")
			}
			if cfg.PasswordHash != "" {
				cfg.PasswordHash = "(set)"
			}
			b, _ := json.MarshalIndent(cfg, "", "  ")
			fmt.Fprintln(out, string(b))
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "filelist %s\ncommit: %s\nbuilt: %s\n", v.Version, v.Commit, v.Date)
		},
	}

	cmd.AddCommand(
		serveCmd, initCmd, configCmd, versionCmd,
		buildListCommand(state),
		buildRenderCommand(state),
		buildResolveCommand(state),
		buildPathsCommand(state),
		buildPasswdCommand(state),
		buildAuditCommands(state),
	)
	return cmd
}

func addServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVar(&f.host, "host", "", "advertised host override for generated links")
	cmd.Flags().IntVar(&f.port, "port", 0, "server port")
	cmd.Flags().StringVar(&f.bind, "bind", "", "bind address (default from config, typically 127.0.0.1)")
	cmd.Flags().StringVar(&f.basePath, "basepath", "", "base URL path for reverse proxy (e.g. /files)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug|info|warn|error")
	cmd.Flags().BoolVar(&f.https, "https", false, "enable HTTPS")
	cmd.Flags().StringVar(&f.cert, "cert", "", "TLS certificate path")
	cmd.Flags().StringVar(&f.key, "key", "", "TLS key path")
	cmd.Flags().StringVar(&f.pagesDir, "pages-dir", "", "directory holding markdown pages")
	cmd.Flags().StringArrayVar(&f.paths, "path", nil, "additional allowed root (repeatable)")
	cmd.Flags().BoolVar(&f.noQR, "no-qr", false, "do not print a QR code for the first URL")
}

func loadConfig(state *rootState) (string, config.Config, error) {
	cfgPath := strings.TrimSpace(state.configPath)
	if cfgPath == "" {
		p, err := config.ConfigPathFromEnv()
		if err != nil {
			return "", config.Config{}, err
		}
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath, state.dataDir)
	if err != nil {
		return "", config.Config{}, err
	}
	if state.dataDir != "" {
		cfg.DataDir = state.dataDir
	}
	return cfgPath, cfg, nil
}

func mergeServeFlags(cmd *cobra.Command, cfg config.Config, f *serveFlags) config.Config {
	if cmd.Flags().Changed("host") {
		cfg.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind = f.bind
	}
	if cmd.Flags().Changed("basepath") {
		cfg.BasePath = config.NormalizeBasePath(f.basePath)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(f.logLevel))
	}
	if cmd.Flags().Changed("https") {
		cfg.HTTPS = f.https
	}
	if cmd.Flags().Changed("cert") {
		cfg.CertFile = f.cert
	}
	if cmd.Flags().Changed("key") {
		cfg.KeyFile = f.key
	}
	if cmd.Flags().Changed("pages-dir") {
		cfg.PagesDir = f.pagesDir
	}
	cfg.Paths = appendRoots(cfg.Paths, f.paths)
	return cfg
}

// appendRoots adds extra root lines to a paths block. Relative roots are made
// absolute against the working directory.
func appendRoots(paths string, extra []string) string {
	lines := make([]string, 0, len(extra)+1)
	if strings.TrimSpace(paths) != "" {
		lines = append(lines, strings.TrimRight(paths, "\n"))
	}
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		lines = append(lines, filepath.ToSlash(p)+"/")
	}
	return strings.Join(lines, "\n")
}

// installDir is the directory of the running binary. It belongs to the host
// and is never listed or served.
func installDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil {
		exe = real
	}
	return filepath.Dir(exe)
}

func newEngine(cfg config.Config, downloadBase string, logger *slog.Logger) (*wiki.Engine, error) {
	ignores, err := crawler.LoadIgnores(cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}
	return wiki.NewEngine(wiki.Settings{
		Paths:        cfg.Paths,
		Extensions:   cfg.Extensions,
		Defaults:     cfg.Defaults,
		DownloadBase: downloadBase,
		Ignores:      ignores,
		Jail:         pathres.NewJail(cfg.DataDir, cfg.PagesDir, installDir()),
		Logger:       logger,
	}), nil
}

// stderrLogger is used by the one-shot commands, which only report problems.
func stderrLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(cmd *cobra.Command, state *rootState, flags *serveFlags, v VersionInfo) error {
	cfgPath, cfg, err := loadConfig(state)
	if err != nil {
		return err
	}
	cfg = mergeServeFlags(cmd, cfg, flags)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	ignores, err := crawler.LoadIgnores(cfg.IgnoreFile)
	if err != nil {
		return err
	}

	opts := server.Options{
		DataDir:    cfg.DataDir,
		PagesDir:   cfg.PagesDir,
		Bind:       cfg.Bind,
		Host:       cfg.Host,
		Port:       cfg.Port,
		BasePath:   cfg.BasePath,
		LogLevel:   cfg.LogLevel,
		HTTPS:      cfg.HTTPS,
		CertFile:   cfg.CertFile,
		KeyFile:    cfg.KeyFile,
		Version:    v.Version,
		Paths:      cfg.Paths,
		Extensions: cfg.Extensions,
		Defaults:   cfg.Defaults,
		Ignores:    ignores,
		InstallDir: installDir(),
		Credentials: auth.Credentials{
			Username:     cfg.Username,
			PasswordHash: cfg.PasswordHash,
		},
	}

	out := cmd.OutOrStdout()
	roots := pathres.Parse(cfg.Paths, "").Rules()
	urls := util.DiscoverURLs(opts.Bind, opts.Port, opts.HTTPS, config.NormalizeBasePath(opts.BasePath))
	fmt.Fprintf(out, "Config:  %s\n", cfgPath)
	fmt.Fprintf(out, "Data:    %s\n", cfg.DataDir)
	fmt.Fprintf(out, "Pages:   %s\n", cfg.PagesDir)
	fmt.Fprintf(out, "Roots:   %d configured\n", len(uniqueRoots(roots)))
	fmt.Fprintf(out, "Auth:    %v\n", opts.Credentials.Enabled())
	fmt.Fprintln(out, "URLs:")
	for _, u := range urls {
		fmt.Fprintf(out, "  - %s\n", u)
	}
	if len(urls) > 0 && !flags.noQR {
		fmt.Fprintln(out, "QR (scan from phone on same LAN):")
		if err := util.PrintTerminalQR(out, lanURL(urls)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "qr: %v\n", err)
		}
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return server.Run(ctx, opts)
}

// lanURL prefers an address other devices can reach.
func lanURL(urls []string) string {
	for _, u := range urls {
		if !strings.Contains(u, "://127.0.0.1") && !strings.Contains(u, "://localhost") {
			return u
		}
	}
	return urls[0]
}

func uniqueRoots(rules map[string]pathres.PathRule) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if seen[r.Root] {
			continue
		}
		seen[r.Root] = true
		out = append(out, r.Root)
	}
	return out
}

func runInit(cmd *cobra.Command, state *rootState) error {
	cfgPath, cfg, err := loadConfig(state)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), out)

	fmt.Fprintln(out, "filelist first-run setup")
	cfg.DataDir = p.text("Data directory", cfg.DataDir)
	cfg.PagesDir = p.text("Pages directory", firstNonEmpty(cfg.PagesDir, filepath.Join(cfg.DataDir, "pages")))
	cfg.Bind = p.text("Bind address", cfg.Bind)
	if cfg.Port, err = p.positiveInt("Port", cfg.Port); err != nil {
		return err
	}
	cfg.BasePath = config.NormalizeBasePath(p.text("Base path", cfg.BasePath))
	fmt.Fprintln(out, "Allowed roots, one per line; \"A> alias\" and \"W> url\" lines attach to the root above. Empty line ends.")
	cfg.Paths = p.lines(cfg.Paths)
	cfg.Extensions = p.text("Allowed extensions (comma separated, empty for all)", cfg.Extensions)
	cfg.Defaults = p.text("Default flags (e.g. sort=mtime&order=desc)", cfg.Defaults)

	protect, err := p.yesNo("Protect downloads with a password", cfg.PasswordHash != "")
	if err != nil {
		return err
	}
	cfg.PasswordHash = ""
	if protect {
		cfg.Username = p.text("Username", firstNonEmpty(cfg.Username, auth.DefaultUsername))
		password, err := p.newPassword("Password")
		if err != nil {
			return err
		}
		if cfg.PasswordHash, err = auth.HashPassword(password); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.PagesDir, 0o755); err != nil {
		return fmt.Errorf("create pages dir: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config saved to %s\n", cfgPath)
	fmt.Fprintln(out, "Add markdown pages with {{filelist>/root/*}} directives, then run `filelist`.")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

