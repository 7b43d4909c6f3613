package oauth

import (
	"log"
	"net/http"

	"github.com/louisbranch/oauthlogin/internal/services/login/session"
)

// handleLogout clears the session whether or not a user is bound, then
// redirects to the application root.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(r)
	if err != nil {
		log.Printf("provider=%s load session for logout: %v", s.provider.Name, err)
		sess = session.New()
	}
	sess.Invalidate()
	if err := s.sessions.Save(w, sess); err != nil {
		log.Printf("provider=%s clear session: %v", s.provider.Name, err)
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
