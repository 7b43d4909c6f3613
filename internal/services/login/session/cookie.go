package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultCookieName names the session cookie when none is configured.
	DefaultCookieName = "login_session"

	// DefaultTTL bounds how long a saved session stays valid.
	DefaultTTL = 24 * time.Hour

	// MinKeySize is the smallest accepted HMAC key in bytes.
	MinKeySize = 32

	// maxCookieSize keeps the encoded session within browser cookie limits.
	maxCookieSize = 4096

	cookieIssuer = "oauthlogin/session"
)

// ErrKeyTooShort is returned for signing keys under MinKeySize bytes.
var ErrKeyTooShort = errors.New("session key must be at least 32 bytes")

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// normalize applies defaults without overriding explicit choices.
func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

// sessionClaims is the signed cookie payload.
type sessionClaims struct {
	jwt.RegisteredClaims
	Values map[string]string `json:"values,omitempty"`
}

// CookieStore keeps session values in an HMAC-signed cookie held by the
// client. Nothing is stored server side.
type CookieStore struct {
	key   []byte
	opts  CookieOptions
	clock func() time.Time
}

// NewCookieStore builds a store that signs cookies with key.
func NewCookieStore(key []byte, opts CookieOptions) (*CookieStore, error) {
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	owned := make([]byte, len(key))
	copy(owned, key)
	return &CookieStore{
		key:   owned,
		opts:  opts.normalize(),
		clock: time.Now,
	}, nil
}

// GenerateKey returns a random signing key of MinKeySize bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, MinKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return key, nil
}

// CookieName returns the configured cookie name.
func (c *CookieStore) CookieName() string {
	return c.opts.Name
}

// Load returns the session carried by the request cookie. A missing,
// expired or tampered cookie yields a new empty session.
func (c *CookieStore) Load(r *http.Request) (*Session, error) {
	if r == nil {
		return nil, errors.New("session: request is required")
	}
	cookie, err := r.Cookie(c.opts.Name)
	if err != nil || cookie.Value == "" {
		return New(), nil
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock),
	)
	if err != nil {
		return New(), nil
	}

	values := claims.Values
	if values == nil {
		values = make(map[string]string)
	}
	return &Session{values: values}, nil
}

// Save writes the session cookie, or expires it when the session was
// invalidated.
func (c *CookieStore) Save(w http.ResponseWriter, s *Session) error {
	if s == nil {
		return errors.New("session: session is required")
	}
	if s.Invalidated() {
		c.clear(w)
		return nil
	}

	now := c.clock().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.opts.TTL)),
		},
		Values: s.snapshot(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return fmt.Errorf("session: sign cookie: %w", err)
	}
	if len(signed) > maxCookieSize {
		return fmt.Errorf("session: encoded cookie is %d bytes, limit %d", len(signed), maxCookieSize)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    signed,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   int(c.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
	s.isNew = false
	return nil
}

// clear expires the session cookie.
func (c *CookieStore) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    "",
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}
