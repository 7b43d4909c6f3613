package oauth

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/louisbranch/oauthlogin/internal/platform/config"
	apperrors "github.com/louisbranch/oauthlogin/internal/platform/errors"
)

// Encoding selects how the token exchange request body is encoded.
type Encoding int

const (
	// EncodingJSON sends the token request as a JSON object.
	EncodingJSON Encoding = iota
	// EncodingForm sends the token request as application/x-www-form-urlencoded.
	EncodingForm
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingForm:
		return "form"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ProviderConfig describes one external OAuth provider. It is built once at
// startup and never mutated afterwards.
type ProviderConfig struct {
	Name            string
	ClientID        string
	ClientSecret    string
	AuthorizeURL    string
	TokenURL        string
	Scopes          []string
	ExtraAuthParams map[string]string
	Encoding        Encoding
	Strategy        IdentityStrategy
}

// Validate reports whether the provider can serve requests.
func (p ProviderConfig) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" || strings.TrimSpace(p.ClientSecret) == "" {
		return apperrors.WithMetadata(apperrors.CodeConfigMissingCredentials,
			"provider client id and secret are required",
			map[string]string{"provider": p.Name})
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.New(apperrors.CodeConfigInvalid, "provider name is required")
	}
	for _, endpoint := range []struct{ field, raw string }{
		{"authorize url", p.AuthorizeURL},
		{"token url", p.TokenURL},
	} {
		if err := validateAbsoluteURL(endpoint.raw); err != nil {
			return apperrors.WrapWithMetadata(apperrors.CodeConfigInvalid,
				"provider "+endpoint.field+" is invalid",
				map[string]string{"provider": p.Name}, err)
		}
	}
	if p.Encoding != EncodingJSON && p.Encoding != EncodingForm {
		return apperrors.WithMetadata(apperrors.CodeConfigInvalid,
			"provider encoding is unknown",
			map[string]string{"provider": p.Name, "encoding": p.Encoding.String()})
	}
	if p.Strategy == nil {
		return apperrors.WithMetadata(apperrors.CodeConfigInvalid,
			"provider identity strategy is required",
			map[string]string{"provider": p.Name})
	}
	return nil
}

// clone returns a copy that shares no slices or maps with p.
func (p ProviderConfig) clone() ProviderConfig {
	p.Scopes = slices.Clone(p.Scopes)
	p.ExtraAuthParams = maps.Clone(p.ExtraAuthParams)
	return p
}

func validateAbsoluteURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	return nil
}

// credentialsEnv holds the primary provider credentials.
type credentialsEnv struct {
	ClientID     string `env:"CLIENT_ID,notEmpty"`
	ClientSecret string `env:"CLIENT_SECRET,notEmpty"`
}

// githubEnv holds the optional GitHub credentials.
type githubEnv struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

// LoadGoogleFromEnv builds the Google provider from CLIENT_ID and
// CLIENT_SECRET. A nil environ reads the process environment.
func LoadGoogleFromEnv(environ map[string]string) (ProviderConfig, error) {
	var raw credentialsEnv
	if err := config.ParseEnvFrom(&raw, environ); err != nil {
		return ProviderConfig{}, apperrors.Wrap(apperrors.CodeConfigMissingCredentials,
			"CLIENT_ID and CLIENT_SECRET are required", err)
	}
	provider := Google(strings.TrimSpace(raw.ClientID), strings.TrimSpace(raw.ClientSecret))
	if err := provider.Validate(); err != nil {
		return ProviderConfig{}, err
	}
	return provider, nil
}

// LoadGitHubFromEnv builds the GitHub provider when both GitHub credentials
// are present. The boolean is false when the provider is not configured.
func LoadGitHubFromEnv(environ map[string]string) (ProviderConfig, bool, error) {
	var raw githubEnv
	if err := config.ParseEnvFrom(&raw, environ); err != nil {
		return ProviderConfig{}, false, apperrors.Wrap(apperrors.CodeConfigInvalid, "load github credentials", err)
	}
	clientID := strings.TrimSpace(raw.ClientID)
	clientSecret := strings.TrimSpace(raw.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return ProviderConfig{}, false, nil
	}
	provider := GitHub(clientID, clientSecret)
	if err := provider.Validate(); err != nil {
		return ProviderConfig{}, false, err
	}
	return provider, true, nil
}
