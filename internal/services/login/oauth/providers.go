package oauth

import "golang.org/x/oauth2/github"

const (
	googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// Google returns the Google provider. Identity comes from the tokeninfo
// endpoint, queried with the id token and the access token as bearer.
func Google(clientID, clientSecret string) ProviderConfig {
	return ProviderConfig{
		Name:         "google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthorizeURL: googleAuthorizeURL,
		TokenURL:     googleTokenURL,
		Scopes:       []string{"email", "profile", "openid"},
		Encoding:     EncodingJSON,
		Strategy: UserInfoStrategy{
			URL:          googleTokenInfoURL,
			IDTokenParam: "id_token",
			NameField:    "name",
		},
	}
}

// GitHub returns the GitHub provider. Its token response is passed through
// as the login payload and no identity is bound.
func GitHub(clientID, clientSecret string) ProviderConfig {
	return ProviderConfig{
		Name:         "github",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthorizeURL: github.Endpoint.AuthURL,
		TokenURL:     github.Endpoint.TokenURL,
		Scopes:       []string{"read:user", "user:email"},
		Encoding:     EncodingJSON,
		Strategy:     TokenPayloadStrategy{},
	}
}
