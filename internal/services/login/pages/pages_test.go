package pages

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/louisbranch/oauthlogin/internal/services/login/session"
)

type stubSessions struct {
	sess *session.Session
	err  error
}

func (s stubSessions) Load(*http.Request) (*session.Session, error) {
	return s.sess, s.err
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestIndexAnonymousListsProviders(t *testing.T) {
	html := render(t, Index(IndexView{
		Providers: []ProviderLink{{Name: "google", Path: "/auth"}, {Name: "github", Path: "/github/auth"}},
	}))
	for _, want := range []string{"not signed in", `href="/auth"`, `href="/github/auth"`, "Sign in with github"} {
		if !strings.Contains(html, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestIndexEscapesUser(t *testing.T) {
	html := render(t, Index(IndexView{User: "<script>x</script>", LogoutPath: "/auth/logout"}))
	if strings.Contains(html, "<script>") {
		t.Fatalf("user name not escaped: %s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") || !strings.Contains(html, `href="/auth/logout"`) {
		t.Fatalf("unexpected index: %s", html)
	}
}

func TestIndexEscapesProviderLinks(t *testing.T) {
	html := render(t, Index(IndexView{
		Providers: []ProviderLink{{Name: `<img src=x onerror=alert(1)>`, Path: `javascript:alert(1)`}},
	}))
	if strings.Contains(html, "<img") || strings.Contains(html, `href="javascript:`) {
		t.Fatalf("provider link not escaped: %s", html)
	}
	if !strings.Contains(html, "&lt;img") {
		t.Fatalf("provider name missing: %s", html)
	}
}

func TestIndexHandler(t *testing.T) {
	bound := session.New()
	bound.Set(session.KeyUser, "Alice")

	tests := []struct {
		name     string
		sessions stubSessions
		want     string
	}{
		{"bound user", stubSessions{sess: bound}, "Signed in as <strong>Alice</strong>"},
		{"anonymous", stubSessions{sess: session.New()}, "not signed in"},
		{"store failure", stubSessions{err: errors.New("boom")}, "not signed in"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := IndexHandler(tc.sessions, []ProviderLink{{Name: "google", Path: "/auth"}}, "/auth/logout")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Fatalf("body missing %q: %s", tc.want, rr.Body.String())
			}
		})
	}
}

func TestContinuationsOnLoginRedirects(t *testing.T) {
	rr := httptest.NewRecorder()
	Continuations{}.OnLogin(rr, httptest.NewRequest(http.MethodGet, "/callback", nil), map[string]any{"name": "Alice"})
	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/" {
		t.Fatalf("Location = %q, want /", got)
	}
}

func TestContinuationsOnErrorRendersPage(t *testing.T) {
	rr := httptest.NewRecorder()
	Continuations{}.OnError(rr, httptest.NewRequest(http.MethodGet, "/callback", nil), `access_denied"><b>`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "access_denied") || strings.Contains(body, "<b>") {
		t.Fatalf("unexpected error page: %s", body)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("Content-Type = %q", got)
	}
}

func TestContinuationsOnErrorLinksHome(t *testing.T) {
	rr := httptest.NewRecorder()
	Continuations{Home: "/welcome"}.OnError(rr, httptest.NewRequest(http.MethodGet, "/callback", nil), "access_denied")
	if !strings.Contains(rr.Body.String(), `href="/welcome"`) {
		t.Fatalf("error page missing home link: %s", rr.Body.String())
	}
}
