package oauth

import (
	"net/http"

	"golang.org/x/oauth2"
)

// AuthCodeURL returns the provider authorize url for a flow whose callback
// is redirectURI. Extra parameters are applied after the base parameters,
// except that configured scopes always win over an extra "scope".
func (s *Server) AuthCodeURL(redirectURI string) string {
	cfg := oauth2.Config{
		ClientID: s.provider.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.provider.AuthorizeURL,
			TokenURL: s.provider.TokenURL,
		},
		RedirectURL: redirectURI,
		Scopes:      s.provider.Scopes,
	}
	opts := make([]oauth2.AuthCodeOption, 0, len(s.provider.ExtraAuthParams))
	for key, value := range s.provider.ExtraAuthParams {
		if key == "scope" && len(s.provider.Scopes) > 0 {
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(key, value))
	}
	return cfg.AuthCodeURL("", opts...)
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.AuthCodeURL(s.redirectURI(r)), http.StatusTemporaryRedirect)
}
