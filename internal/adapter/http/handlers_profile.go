package adapthttp

import (
	"net/http"

	"trimtrack/internal/domain"
)

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	p, err := s.profile.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":  p,
		"complete": p.Complete(),
	})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProfilePatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	user := userFromContext(r)
	p, err := s.profile.Update(r.Context(), user.ID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":  p,
		"complete": p.Complete(),
	})
}

func (s *Server) handleProfileMetrics(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	m, err := s.profile.HealthMetrics(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	pub, err := s.profile.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}
