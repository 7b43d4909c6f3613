package oauth

import (
	"encoding/json"
	"log"
	"net/http"
)

// Continuations receive the terminal outcome of a callback and write the
// response.
type Continuations interface {
	// OnLogin runs after the identity has been bound.
	OnLogin(w http.ResponseWriter, r *http.Request, payload map[string]any)
	// OnError runs when the provider reported an error on callback.
	OnError(w http.ResponseWriter, r *http.Request, code string)
}

// DefaultContinuations echo the login payload as JSON and report provider
// errors as a server error.
type DefaultContinuations struct{}

// OnLogin writes payload as the response body.
func (DefaultContinuations) OnLogin(w http.ResponseWriter, _ *http.Request, payload map[string]any) {
	writeJSON(w, http.StatusOK, payload)
}

// OnError responds 500 naming the provider's error code.
func (DefaultContinuations) OnError(w http.ResponseWriter, _ *http.Request, code string) {
	http.Error(w, "Unhandled OAuth2 Error: "+code, http.StatusInternalServerError)
}

// RedirectContinuations redirect to Location after login and fall back to
// the default error response.
type RedirectContinuations struct {
	Location string
}

// OnLogin redirects to Location, or "/" when unset.
func (c RedirectContinuations) OnLogin(w http.ResponseWriter, r *http.Request, _ map[string]any) {
	location := c.Location
	if location == "" {
		location = "/"
	}
	http.Redirect(w, r, location, http.StatusTemporaryRedirect)
}

// OnError delegates to DefaultContinuations.
func (RedirectContinuations) OnError(w http.ResponseWriter, r *http.Request, code string) {
	DefaultContinuations{}.OnError(w, r, code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		payload = map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json response: %v", err)
	}
}
