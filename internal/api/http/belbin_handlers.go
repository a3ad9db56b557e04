// internal/api/http/belbin_handlers.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/talentroute/assessment-engine/internal/auth/middleware"
	"github.com/talentroute/assessment-engine/internal/belbin"
	"github.com/talentroute/assessment-engine/internal/catalog"
)

func ListBelbinQuestionsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.BelbinQuestions(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, qs)
	}
}

// POST /belbin/answers  { "question_id": "...", "option_id": "...", "score": 4 }
func SubmitBelbinAnswerHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			OptionID   string `json:"option_id"`
			Score      int    `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID == "" || req.OptionID == "" {
			http.Error(w, "question_id and option_id required", http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		st, err := svc.SubmitAnswer(r.Context(), userID, req.QuestionID, req.OptionID, req.Score)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

func BelbinNextQuestionHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		q, err := svc.NextQuestion(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, q)
	}
}

func BelbinAnswersHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		st, err := svc.Answers(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

func FinishBelbinHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		st, err := svc.Finish(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

// AdminResetBelbinHandler wipes a participant's answers so they can
// retake the inventory.
func AdminResetBelbinHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Reset(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

func BelbinStatsHandler(svc *belbin.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.FinishedStats(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, stats)
	}
}
