package app

import (
	"time"

	"github.com/louisbranch/oauthlogin/internal/services/login/oauth"
)

// Config is everything the login server needs, resolved before New.
type Config struct {
	HTTPAddr string

	// Google is the primary provider mounted at /auth and /callback.
	Google oauth.ProviderConfig
	// GitHub is mounted under /github when set.
	GitHub *oauth.ProviderConfig

	// SessionSecret signs session cookies. A random key is generated when
	// empty, which invalidates sessions on every restart.
	SessionSecret   []byte
	SessionTTL      time.Duration
	CookieSecure    bool
	ProviderTimeout time.Duration
	PublicBaseURL   string

	// Version is reported by the status endpoint.
	Version string
}

// githubRoutes mounts the GitHub flow beside the primary provider. Logout
// is shared so it is not registered twice.
var githubRoutes = oauth.Routes{
	Authorize: "/github/auth",
	Callback:  "/github/callback",
}
