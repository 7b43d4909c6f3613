package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/oauthlogin/internal/platform/errors"
)

// Identity is the outcome of resolving a token response.
type Identity struct {
	// Payload is handed to the login continuation.
	Payload map[string]any
	// Name is written to the session user key. Empty binds nothing.
	Name string
}

// ProfileFetcher performs one bounded, traced GET to the provider and
// decodes the JSON object it returns.
type ProfileFetcher func(ctx context.Context, req *http.Request) (map[string]any, error)

// IdentityStrategy turns a token response into an Identity. Each provider
// picks the strategy matching how it exposes user data.
type IdentityStrategy interface {
	Identify(ctx context.Context, token map[string]any, fetch ProfileFetcher) (Identity, error)
}

// UserInfoStrategy queries a user-info endpoint with the issued tokens and
// binds a display name from the response. A response whose NameField is
// missing or blank fails the callback; no fallback identity is bound.
type UserInfoStrategy struct {
	URL string
	// IDTokenParam names the query parameter carrying the id token. Empty
	// sends no id token.
	IDTokenParam string
	// NameField is the profile field bound as the user name, "name" when empty.
	NameField string
}

// Identify fetches the profile and extracts the display name.
func (s UserInfoStrategy) Identify(ctx context.Context, token map[string]any, fetch ProfileFetcher) (Identity, error) {
	accessToken := stringField(token, "access_token")
	if accessToken == "" {
		return Identity{}, apperrors.New(apperrors.CodeTokenExchangeFailed, "token response missing access_token")
	}

	target, err := url.Parse(s.URL)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeProfileFetchFailed, "parse user-info url", err)
	}
	if s.IDTokenParam != "" {
		idToken := stringField(token, "id_token")
		if idToken == "" {
			return Identity{}, apperrors.New(apperrors.CodeTokenExchangeFailed, "token response missing id_token")
		}
		query := target.Query()
		query.Set(s.IDTokenParam, idToken)
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeProfileFetchFailed, "build user-info request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	profile, err := fetch(ctx, req)
	if err != nil {
		return Identity{}, err
	}

	field := s.NameField
	if field == "" {
		field = "name"
	}
	name := strings.TrimSpace(stringField(profile, field))
	if name == "" {
		return Identity{}, apperrors.WithMetadata(apperrors.CodeProfileFetchFailed,
			"user-info response missing display name",
			map[string]string{"field": field})
	}
	return Identity{Payload: profile, Name: name}, nil
}

// TokenPayloadStrategy treats the token response itself as the login payload.
type TokenPayloadStrategy struct{}

// Identify returns the token response unchanged without binding a name.
func (TokenPayloadStrategy) Identify(_ context.Context, token map[string]any, _ ProfileFetcher) (Identity, error) {
	return Identity{Payload: token}, nil
}

func stringField(values map[string]any, key string) string {
	value, _ := values[key].(string)
	return value
}
