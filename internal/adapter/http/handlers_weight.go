package adapthttp

import (
	"net/http"

	"trimtrack/internal/domain"
)

func (s *Server) handleWeightList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	limit := intQuery(r, "limit", 0)
	items, err := s.weight.List(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.WeightEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleWeightRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64     `json:"value"`
		Unit  domain.Unit `json:"unit"`
		Date  string      `json:"date"`
		Note  string      `json:"note"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Unit == "" {
		body.Unit = domain.Kilograms
	}

	user := userFromContext(r)
	res, err := s.weight.Record(r.Context(), user.ID, body.Value, body.Unit, body.Date, body.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) handleWeightUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.WeightPatch
	if err := parseJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	user := userFromContext(r)
	entry, err := s.weight.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleWeightDelete(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id := r.PathValue("id")
	if err := s.weight.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (s *Server) handleWeightLatest(w http.ResponseWriter, r *http.Request) {
	unit, err := unitQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := userFromContext(r)
	view, err := s.weight.Latest(r.Context(), user.ID, unit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWeightStats(w http.ResponseWriter, r *http.Request) {
	unit, err := unitQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := userFromContext(r)
	stats, err := s.weight.Stats(r.Context(), user.ID, unit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleWeightTarget(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value float64     `json:"value"`
		Unit  domain.Unit `json:"unit"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Unit == "" {
		body.Unit = domain.Kilograms
	}

	user := userFromContext(r)
	profile, err := s.weight.SetTarget(r.Context(), user.ID, body.Value, body.Unit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"targetWeight": profile.TargetWeight,
		"unit":         profile.TargetUnit,
	})
}
