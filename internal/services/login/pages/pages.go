// Package pages renders the login service's HTML pages.
package pages

import (
	"log"
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/oauthlogin/internal/services/login/session"
)

// ProviderLink points at a provider's authorize route.
type ProviderLink struct {
	Name string
	Path string
}

// IndexView is the data behind the index page.
type IndexView struct {
	User       string
	Providers  []ProviderLink
	LogoutPath string
}

// Index greets the bound user or offers a login link per provider.
func Index(view IndexView) templ.Component {
	return templ.FromGoHTML(templates.Lookup("index.html"), view)
}

// errorView is the data behind the error page.
type errorView struct {
	Code string
	Home string
}

// ErrorPage reports a provider error code.
func ErrorPage(code, home string) templ.Component {
	if home == "" {
		home = "/"
	}
	return templ.FromGoHTML(templates.Lookup("error.html"), errorView{Code: code, Home: home})
}

// SessionLoader reads the request session.
type SessionLoader interface {
	Load(r *http.Request) (*session.Session, error)
}

// IndexHandler renders Index for the session bound to each request.
func IndexHandler(sessions SessionLoader, providers []ProviderLink, logoutPath string) http.Handler {
	links := append([]ProviderLink(nil), providers...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := IndexView{Providers: links, LogoutPath: logoutPath}
		sess, err := sessions.Load(r)
		if err != nil {
			log.Printf("load session for index: %v", err)
		} else if user, ok := sess.Get(session.KeyUser); ok {
			view.User = user
		}
		templ.Handler(Index(view)).ServeHTTP(w, r)
	})
}

// Continuations redirect home after login and render ErrorPage on provider
// errors.
type Continuations struct {
	Home string
}

// OnLogin redirects to Home, or "/" when unset.
func (c Continuations) OnLogin(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	http.Redirect(w, r, c.home(), http.StatusTemporaryRedirect)
}

// OnError renders ErrorPage with status 500.
func (c Continuations) OnError(w http.ResponseWriter, r *http.Request, code string) {
	templ.Handler(ErrorPage(code, c.home()), templ.WithStatus(http.StatusInternalServerError)).ServeHTTP(w, r)
}

func (c Continuations) home() string {
	if c.Home == "" {
		return "/"
	}
	return c.Home
}
