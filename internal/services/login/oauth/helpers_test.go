package oauth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/oauthlogin/internal/services/login/session"
)

type capturedRequest struct {
	method string
	query  url.Values
	header http.Header
	body   []byte
}

// fakeProvider serves token and tokeninfo endpoints and records every call.
type fakeProvider struct {
	server *httptest.Server

	mu              sync.Mutex
	tokenRequests   []capturedRequest
	profileRequests []capturedRequest

	tokenStatus   int
	tokenBody     string
	profileStatus int
	profileBody   string
	tokenDelay    time.Duration
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{
		tokenStatus:   http.StatusOK,
		tokenBody:     `{"id_token":"T","access_token":"A"}`,
		profileStatus: http.StatusOK,
		profileBody:   `{"name":"Alice","email":"alice@example.com"}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		fp.record(&fp.tokenRequests, r)
		if fp.tokenDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(fp.tokenDelay):
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fp.tokenStatus)
		_, _ = io.WriteString(w, fp.tokenBody)
	})
	mux.HandleFunc("/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		fp.record(&fp.profileRequests, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fp.profileStatus)
		_, _ = io.WriteString(w, fp.profileBody)
	})
	fp.server = httptest.NewServer(mux)
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) record(dst *[]capturedRequest, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fp.mu.Lock()
	defer fp.mu.Unlock()
	*dst = append(*dst, capturedRequest{
		method: r.Method,
		query:  r.URL.Query(),
		header: r.Header.Clone(),
		body:   body,
	})
}

func (fp *fakeProvider) tokenCalls() []capturedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]capturedRequest(nil), fp.tokenRequests...)
}

func (fp *fakeProvider) profileCalls() []capturedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return append([]capturedRequest(nil), fp.profileRequests...)
}

// googleConfig points the Google preset at the fake provider.
func (fp *fakeProvider) googleConfig() ProviderConfig {
	provider := Google("client-id", "client-secret")
	provider.AuthorizeURL = fp.server.URL + "/authorize"
	provider.TokenURL = fp.server.URL + "/token"
	provider.Strategy = UserInfoStrategy{
		URL:          fp.server.URL + "/tokeninfo",
		IDTokenParam: "id_token",
		NameField:    "name",
	}
	return provider
}

// recordingSessions wraps a cookie store and counts calls.
type recordingSessions struct {
	store *session.CookieStore

	mu    sync.Mutex
	loads int
	saves []*session.Session
}

func newRecordingSessions(t *testing.T) *recordingSessions {
	t.Helper()
	store, err := session.NewCookieStore(bytes.Repeat([]byte{7}, session.MinKeySize), session.CookieOptions{})
	if err != nil {
		t.Fatalf("NewCookieStore: %v", err)
	}
	return &recordingSessions{store: store}
}

func (s *recordingSessions) Load(r *http.Request) (*session.Session, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.store.Load(r)
}

func (s *recordingSessions) Save(w http.ResponseWriter, sess *session.Session) error {
	s.mu.Lock()
	s.saves = append(s.saves, sess)
	s.mu.Unlock()
	return s.store.Save(w, sess)
}

func (s *recordingSessions) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, len(s.saves)
}

// replay sends the cookies set on rr with a new request to path.
func replay(rr *httptest.ResponseRecorder, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range rr.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

type recordedContinuations struct {
	logins [][]byte
	errors []string
}

func (c *recordedContinuations) OnLogin(w http.ResponseWriter, _ *http.Request, payload map[string]any) {
	c.logins = append(c.logins, mustJSON(payload))
	w.WriteHeader(http.StatusNoContent)
}

func (c *recordedContinuations) OnError(w http.ResponseWriter, _ *http.Request, code string) {
	c.errors = append(c.errors, code)
	w.WriteHeader(http.StatusTeapot)
}

type fakeRecorder struct {
	mu        sync.Mutex
	callbacks []string
	requests  []string
}

func (r *fakeRecorder) ObserveCallback(provider, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, provider+"/"+outcome)
}

func (r *fakeRecorder) ObserveProviderRequest(provider, operation string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, provider+"/"+operation)
}

func newTestServer(t *testing.T, provider ProviderConfig, opts Options) *Server {
	t.Helper()
	if opts.Client == nil {
		client := NewHTTPClient(time.Second)
		t.Cleanup(func() { _ = client.Close() })
		opts.Client = client
	}
	if opts.Sessions == nil {
		opts.Sessions = newRecordingSessions(t)
	}
	srv, err := NewServer(provider, opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
