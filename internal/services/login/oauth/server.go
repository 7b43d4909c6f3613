package oauth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/louisbranch/oauthlogin/internal/platform/errors"
	"github.com/louisbranch/oauthlogin/internal/platform/timeouts"
	"github.com/louisbranch/oauthlogin/internal/services/login/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/oauthlogin/internal/services/login/oauth"

// SessionStore loads and saves the per-request session.
type SessionStore interface {
	Load(r *http.Request) (*session.Session, error)
	Save(w http.ResponseWriter, s *session.Session) error
}

// Recorder observes callback outcomes and provider call latency.
type Recorder interface {
	ObserveCallback(provider, outcome string)
	ObserveProviderRequest(provider, operation string, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveCallback(string, string)                       {}
func (noopRecorder) ObserveProviderRequest(string, string, time.Duration) {}

// Routes are the paths a Server mounts.
type Routes struct {
	Authorize string
	Callback  string
	// Logout is skipped when empty.
	Logout string
}

// DefaultRoutes returns the conventional paths.
func DefaultRoutes() Routes {
	return Routes{
		Authorize: "/auth",
		Callback:  "/callback",
		Logout:    "/auth/logout",
	}
}

// Options configure a Server.
type Options struct {
	Routes   Routes
	Client   Doer
	Sessions SessionStore
	// Continuations default to DefaultContinuations.
	Continuations Continuations
	Metrics       Recorder
	// PublicBaseURL replaces the request scheme and host when building the
	// redirect uri.
	PublicBaseURL string
	// Timeout bounds each outbound provider call.
	Timeout time.Duration
}

// Server serves the authorization code flow for one provider.
type Server struct {
	provider      ProviderConfig
	routes        Routes
	client        Doer
	sessions      SessionStore
	continuations Continuations
	metrics       Recorder
	publicBase    *url.URL
	timeout       time.Duration
	tracer        trace.Tracer
	clock         func() time.Time
}

// NewServer builds a Server for provider. The provider is copied so later
// changes by the caller do not reach live requests.
func NewServer(provider ProviderConfig, opts Options) (*Server, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	if opts.Client == nil {
		return nil, errors.New("oauth: http client is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("oauth: session store is required")
	}

	routes := opts.Routes
	if routes.Authorize == "" && routes.Callback == "" && routes.Logout == "" {
		routes = DefaultRoutes()
	}
	if routes.Authorize == "" || routes.Callback == "" {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "authorize and callback routes are required")
	}

	var publicBase *url.URL
	if raw := strings.TrimSpace(opts.PublicBaseURL); raw != "" {
		if err := validateAbsoluteURL(raw); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigInvalid, "public base url is invalid", err)
		}
		publicBase, _ = url.Parse(raw)
	}

	continuations := opts.Continuations
	if continuations == nil {
		continuations = DefaultContinuations{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopRecorder{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = timeouts.ProviderRequest
	}

	return &Server{
		provider:      provider.clone(),
		routes:        routes,
		client:        opts.Client,
		sessions:      opts.Sessions,
		continuations: continuations,
		metrics:       metrics,
		publicBase:    publicBase,
		timeout:       timeout,
		tracer:        otel.Tracer(tracerName),
		clock:         time.Now,
	}, nil
}

// Routes returns the mounted paths.
func (s *Server) Routes() Routes {
	return s.routes
}

// RegisterRoutes registers the flow endpoints on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET "+s.routes.Authorize, s.handleAuthorize)
	mux.HandleFunc("GET "+s.routes.Callback, s.handleCallback)
	if s.routes.Logout != "" {
		mux.HandleFunc("GET "+s.routes.Logout, s.handleLogout)
	}
}

// redirectURI is the absolute callback url registered with the provider.
// Query strings of the incoming request never reach it.
func (s *Server) redirectURI(r *http.Request) string {
	if s.publicBase != nil {
		base := *s.publicBase
		base.RawQuery = ""
		base.Fragment = ""
		return base.JoinPath(s.routes.Callback).String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	callback := url.URL{Scheme: scheme, Host: r.Host, Path: s.routes.Callback}
	return callback.String()
}
