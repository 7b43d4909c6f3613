package login

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/oauthlogin/internal/platform/cmd"
	"github.com/louisbranch/oauthlogin/internal/services/login/app"
	"github.com/louisbranch/oauthlogin/internal/services/login/oauth"
)

// version is stamped at build time with -ldflags.
var version = "dev"

// Config holds the login command configuration.
type Config struct {
	HTTPAddr        string        `env:"LOGIN_HTTP_ADDR"        envDefault:"localhost:8080"`
	SessionSecret   string        `env:"LOGIN_SESSION_SECRET"`
	SessionTTL      time.Duration `env:"LOGIN_SESSION_TTL"      envDefault:"24h"`
	CookieSecure    bool          `env:"LOGIN_COOKIE_SECURE"    envDefault:"false"`
	ProviderTimeout time.Duration `env:"LOGIN_PROVIDER_TIMEOUT" envDefault:"10s"`
	PublicBaseURL   string        `env:"LOGIN_PUBLIC_BASE_URL"`
}

// ParseConfig loads the environment and applies flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if fs == nil {
		return Config{}, fmt.Errorf("flag parser is required")
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.PublicBaseURL, "public-base-url", cfg.PublicBaseURL, "Public base URL used to build OAuth redirect URIs")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	return cfg, nil
}

// Run loads provider credentials, then serves the login flow until ctx
// ends. Missing credentials fail before any listener is opened.
func Run(ctx context.Context, cfg Config) error {
	google, err := oauth.LoadGoogleFromEnv(nil)
	if err != nil {
		return fmt.Errorf("load google provider: %w", err)
	}
	var github *oauth.ProviderConfig
	if provider, ok, err := oauth.LoadGitHubFromEnv(nil); err != nil {
		return fmt.Errorf("load github provider: %w", err)
	} else if ok {
		github = &provider
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLogin, func(ctx context.Context) error {
		server, err := app.New(ctx, app.Config{
			HTTPAddr:        cfg.HTTPAddr,
			Google:          google,
			GitHub:          github,
			SessionSecret:   []byte(cfg.SessionSecret),
			SessionTTL:      cfg.SessionTTL,
			CookieSecure:    cfg.CookieSecure,
			ProviderTimeout: cfg.ProviderTimeout,
			PublicBaseURL:   cfg.PublicBaseURL,
			Version:         version,
		})
		if err != nil {
			return fmt.Errorf("init login server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve login: %w", err)
		}
		return nil
	})
}
