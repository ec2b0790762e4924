package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matthewsawatzky/filelist/internal/auth"
	"github.com/matthewsawatzky/filelist/internal/config"
	"github.com/matthewsawatzky/filelist/internal/db"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/wiki"
)

//go:embed templates/*.html
var templateFS embed.FS

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxActorKey     ctxKey = "actor"
)

type App struct {
	opts      Options
	store     *db.Store
	logger    *slog.Logger
	templates *template.Template
	engine    *wiki.Engine
	jail      pathres.Jail
}

// New wires an App around an open store. Run is the usual entry point;
// New exists so tests can drive the handler directly.
func New(opts Options, store *db.Store, logger *slog.Logger) (*App, error) {
	opts.BasePath = config.NormalizeBasePath(opts.BasePath)
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	app := &App{
		opts:      opts,
		store:     store,
		logger:    logger,
		templates: tmpl,
		jail:      pathres.NewJail(opts.DataDir, opts.PagesDir, opts.InstallDir),
	}
	app.engine = wiki.NewEngine(wiki.Settings{
		Paths:        opts.Paths,
		Extensions:   opts.Extensions,
		Defaults:     opts.Defaults,
		DownloadBase: app.route("/file"),
		Ignores:      opts.Ignores,
		Jail:         app.jail,
		Logger:       logger,
	})
	return app, nil
}

func Run(ctx context.Context, opts Options) error {
	store, err := db.Open(opts.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	handlerLevel := new(slog.LevelVar)
	handlerLevel.Set(parseLogLevel(opts.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel}))

	switch {
	case !opts.Credentials.Enabled():
		logger.Warn("no download password set; anyone who can reach the server can fetch listed files")
	case auth.NeedsRehash(opts.Credentials.PasswordHash):
		logger.Warn("download password hash uses weak parameters; run `filelist passwd` to renew it")
	}
	app, err := New(opts, store, logger)
	if err != nil {
		return err
	}
	if app.engine.Resolver().Len() == 0 {
		logger.Warn("no paths configured; every listing will report the path as not allowed")
	}
	logger.Info("host-controlled directories", "dirs", app.jail.Dirs())

	addr := net.JoinHostPort(opts.Bind, strconv.Itoa(opts.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       0,
		WriteTimeout:      0,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if opts.HTTPS {
			errCh <- httpServer.ListenAndServeTLS(opts.CertFile, opts.KeyFile)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("listening", "addr", addr, "base_path", app.opts.BasePath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the full middleware-wrapped router.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(a.route("/"), a.handleIndex)
	mux.HandleFunc(a.route("/view/"), a.handleView)
	mux.HandleFunc(a.route("/file"), a.handleFile)
	mux.HandleFunc(a.route("/zip"), a.handleZip)
	mux.HandleFunc(a.route("/api/list"), a.handleList)
	mux.HandleFunc(a.route("/healthz"), a.handleHealth)

	return a.recoverer(a.requestID(a.logRequests(a.securityHeaders(a.basicAuth(mux)))))
}

func (a *App) route(p string) string {
	if a.opts.BasePath == "/" {
		return p
	}
	if p == "/" {
		return a.opts.BasePath + "/"
	}
	return a.opts.BasePath + p
}

// templateBasePath is the prefix templates put in front of absolute links.
func (a *App) templateBasePath() string {
	if a.opts.BasePath == "/" {
		return ""
	}
	return a.opts.BasePath
}

func (a *App) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'none'; form-action 'none'")
		next.ServeHTTP(w, r)
	})
}

func (a *App) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Error("panic recovered", "panic", rec, "path", r.URL.Path, "request_id", requestIDFrom(r))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID tags every request with a UUID, reusing a well-formed incoming
// X-Request-ID.
func (a *App) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxRequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxRequestIDKey).(string)
	return id
}

func actorFrom(r *http.Request) string {
	actor, _ := r.Context().Value(ctxActorKey).(string)
	return actor
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"remote_ip", remoteIP(r),
			"request_id", requestIDFrom(r),
		)
	})
}

// basicAuth enforces the configured download password. Failures are counted
// per client address and lock the address out with growing delays.
func (a *App) basicAuth(next http.Handler) http.Handler {
	if !a.opts.Credentials.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == a.route("/healthz") {
			next.ServeHTTP(w, r)
			return
		}
		key := remoteIP(r)
		locked, retryAfter, err := a.store.CheckAttemptAllowed(key)
		if err == nil && locked {
			a.audit(r, db.ActionAuthLocked, r.URL.Path, http.StatusTooManyRequests, "")
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			a.writeError(w, http.StatusTooManyRequests, fmt.Sprintf("too many attempts, retry in %s", retryAfter.Round(time.Second)))
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			a.challenge(w)
			return
		}
		if !a.opts.Credentials.Check(user, pass) {
			lock, _ := a.store.RegisterFailedAttempt(key)
			a.audit(r, db.ActionAuthFailed, r.URL.Path, http.StatusUnauthorized, user)
			if lock > 0 {
				a.logger.Warn("client locked out", "remote_ip", key, "duration", lock)
			}
			a.challenge(w)
			return
		}
		_ = a.store.ResetAttempts(key)
		ctx := context.WithValue(r.Context(), ctxActorKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="filelist", charset="UTF-8"`)
	a.writeError(w, http.StatusUnauthorized, "authentication required")
}

func (a *App) audit(r *http.Request, action, target string, status int, metadata string) {
	err := a.store.RecordAudit(db.AuditEntry{
		RequestID: requestIDFrom(r),
		Actor:     actorFrom(r),
		RemoteIP:  remoteIP(r),
		Action:    action,
		Target:    target,
		Status:    status,
		Metadata:  metadata,
	})
	if err != nil {
		a.logger.Error("record audit", "action", action, "err", err)
	}
}

// remoteIP is the peer address. Forwarding headers are ignored because they
// key the lockout table and would let clients pick their own key.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// enforceMethod accepts method, and HEAD wherever GET is accepted.
func (a *App) enforceMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (a *App) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]any{"error": message})
}

// writeText is used by the download endpoints, whose clients are browsers
// following plain links.
func (a *App) writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, message)
}
