package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/Its-donkey/buildfront/internal/ratelimit"
	"github.com/Its-donkey/buildfront/internal/store"
	"github.com/Its-donkey/buildfront/logging"
)

//go:embed templates/*.tmpl static/*
var assets embed.FS

const (
	defaultSiteName = "BuildFront"
	shutdownTimeout = 10 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Listen   string
	SiteName string
	Store    StateStore
	Logger   *logging.Logger
	// Limiter throttles the public form endpoints. Nil disables limiting.
	Limiter   *ratelimit.Limiter
	Templates map[string]*template.Template
	Now       func() time.Time
}

// StateStore is the subset of *store.Store the pages read and mutate.
type StateStore interface {
	Snapshot() store.Snapshot
	Subscribe(store.Listener) func()
	AddProject(context.Context, store.ProjectInput) store.Project
	DeleteProject(context.Context, string) bool
	AddClient(context.Context, store.ClientInput) store.Client
	DeleteClient(context.Context, string) bool
	AddContact(context.Context, store.ContactInput) store.Contact
	AddSubscriber(context.Context, string) store.Subscriber
}

type server struct {
	store     StateStore
	logger    *logging.Logger
	limiter   *ratelimit.Limiter
	templates map[string]*template.Template
	siteName  string
	now       func() time.Time
}

// New builds the site handler with request logging applied.
func New(opts Options) (http.Handler, error) {
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	s := &server{
		store:     opts.Store,
		logger:    opts.Logger,
		limiter:   opts.Limiter,
		templates: opts.Templates,
		siteName:  opts.SiteName,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = logging.New("server", logging.FATAL+1)
	}
	if s.siteName == "" {
		s.siteName = defaultSiteName
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.templates == nil {
		templates, err := loadTemplates(assets)
		if err != nil {
			return nil, err
		}
		s.templates = templates
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.Handle("POST /contact", s.limit(http.HandlerFunc(s.handleContact)))
	mux.Handle("POST /subscribe", s.limit(http.HandlerFunc(s.handleSubscribe)))

	mux.HandleFunc("GET /admin", s.handleAdmin)
	mux.HandleFunc("POST /admin/projects", s.handleAddProject)
	mux.HandleFunc("POST /admin/projects/{id}/delete", s.handleDeleteProject)
	mux.HandleFunc("POST /admin/clients", s.handleAddClient)
	mux.HandleFunc("POST /admin/clients/{id}/delete", s.handleDeleteClient)
	mux.HandleFunc("GET /admin/events", s.handleEvents)
	mux.HandleFunc("GET /admin/logs", s.handleLogs)

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /styles.css", http.FileServerFS(static))

	return logging.NewHTTPLogger(s.logger).Middleware(mux), nil
}

// Run serves the site on opts.Listen until ctx is cancelled, then shuts the
// listener down gracefully.
func Run(ctx context.Context, opts Options) error {
	handler, err := New(opts)
	if err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("server", logging.FATAL+1)
	}

	srv := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts derive from ctx so open event streams end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server", "listening", map[string]any{"addr": opts.Listen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server", "stopped", nil)
	return nil
}

func (s *server) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(next)
}
