// Package app composes the login service: it builds collaborators in
// dependency order, owns the shared provider client and runs the HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/oauthlogin/internal/platform/errors"
	"github.com/louisbranch/oauthlogin/internal/platform/timeouts"
	"github.com/louisbranch/oauthlogin/internal/services/login/metrics"
	"github.com/louisbranch/oauthlogin/internal/services/login/oauth"
	"github.com/louisbranch/oauthlogin/internal/services/login/pages"
	"github.com/louisbranch/oauthlogin/internal/services/login/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// newHTTPClient is replaced in tests that observe the client lifecycle.
var newHTTPClient = oauth.NewHTTPClient

// Server is the running login service.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	client     *oauth.HTTPClient
	metrics    *metrics.Metrics
	startedAt  time.Time
	version    string
}

// New builds the server. Provider configuration is validated before any
// resource is acquired, and the provider client is closed again if a later
// step fails.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "http address is required")
	}
	if err := cfg.Google.Validate(); err != nil {
		return nil, err
	}
	if cfg.GitHub != nil {
		if err := cfg.GitHub.Validate(); err != nil {
			return nil, err
		}
	}

	client := newHTTPClient(cfg.ProviderTimeout)
	server, err := build(cfg, httpAddr, client)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("close provider client: %v", closeErr)
		}
		return nil, err
	}
	return server, nil
}

func build(cfg Config, httpAddr string, client *oauth.HTTPClient) (*Server, error) {
	secret := cfg.SessionSecret
	if len(secret) == 0 {
		generated, err := session.GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Printf("warning: LOGIN_SESSION_SECRET is not set, sessions will not survive a restart")
		secret = generated
	}
	sessions, err := session.NewCookieStore(secret, session.CookieOptions{
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigInvalid, "session store", err)
	}

	recorder := metrics.New()
	mux := http.NewServeMux()

	google, err := oauth.NewServer(cfg.Google, oauth.Options{
		Routes:        oauth.DefaultRoutes(),
		Client:        client,
		Sessions:      sessions,
		Continuations: pages.Continuations{Home: "/"},
		Metrics:       recorder,
		PublicBaseURL: cfg.PublicBaseURL,
		Timeout:       cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("google provider: %w", err)
	}
	google.RegisterRoutes(mux)
	links := []pages.ProviderLink{{Name: "Google", Path: google.Routes().Authorize}}

	if cfg.GitHub != nil {
		github, err := oauth.NewServer(*cfg.GitHub, oauth.Options{
			Routes:        githubRoutes,
			Client:        client,
			Sessions:      sessions,
			Metrics:       recorder,
			PublicBaseURL: cfg.PublicBaseURL,
			Timeout:       cfg.ProviderTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("github provider: %w", err)
		}
		github.RegisterRoutes(mux)
		links = append(links, pages.ProviderLink{Name: "GitHub", Path: github.Routes().Authorize})
	}

	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = "dev"
	}
	s := &Server{
		httpAddr:  httpAddr,
		client:    client,
		metrics:   recorder,
		startedAt: time.Now(),
		version:   version,
	}

	mux.Handle("GET /{$}", pages.IndexHandler(sessions, links, google.Routes().Logout))
	mux.Handle("GET /metrics", recorder.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           otelhttp.NewHandler(mux, "login"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe listens on the configured address and serves until ctx
// ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx ends, then drains
// in-flight requests within a bounded shutdown.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("login listening on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return group.Wait()
}

// Close releases the provider client. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		log.Printf("close provider client: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "login",
		"version": s.version,
		"uptime":  int64(time.Since(s.startedAt).Seconds()),
	})
}
