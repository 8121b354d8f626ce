package adapthttp

import (
	"net/http"
)

func (s *Server) handleFoodAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Input string `json:"input"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	user := userFromContext(r)
	a, err := s.calorie.AnalyzeFood(r.Context(), user.ID, body.Input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleFoodHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	h, err := s.calorie.History(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleFoodToday(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	sum, err := s.calorie.Today(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleFoodGoals(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DailyCalorieGoal    *int `json:"dailyCalorieGoal"`
		DailyBurnedCalories *int `json:"dailyBurnedCalories"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	user := userFromContext(r)
	p, err := s.calorie.SetGoals(r.Context(), user.ID, body.DailyCalorieGoal, body.DailyBurnedCalories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dailyCalorieGoal":    p.DailyCalorieGoal,
		"dailyBurnedCalories": p.DailyBurnedCalories,
	})
}

func (s *Server) handleFoodDelete(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id := r.PathValue("id")
	if err := s.calorie.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (s *Server) handleAdviceDiet(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	advice, err := s.advice.DietSuggestions(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

func (s *Server) handleAdvicePlan(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	plan, err := s.advice.WeightLossPlan(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
