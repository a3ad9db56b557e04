// internal/api/http/neo_handlers.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/talentroute/assessment-engine/internal/auth/middleware"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/neo"
)

func ListNeoQuestionsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.NeoQuestions(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, qs)
	}
}

// POST /neo/answers  { "question_id": "...", "likert_key": "4" }
func SubmitNeoAnswerHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			LikertKey  string `json:"likert_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		st, err := svc.SubmitAnswer(r.Context(), userID, req.QuestionID, req.LikertKey)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

// GET /neo/questions/{questionID}/neighbor?dir=next|previous
func NeoNavigateHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		dir := catalog.Direction(r.URL.Query().Get("dir"))
		if dir != catalog.Next && dir != catalog.Previous {
			http.Error(w, "dir must be next or previous", http.StatusBadRequest)
			return
		}
		q, err := svc.Navigate(r.Context(), id, dir)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, q)
	}
}

func NeoNextQuestionHandler(svc *neo.Service) http.HandlerFunc {
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

// GET /neo/questions/{questionID}/answer returns the caller's recorded
// likert key for one question.
func NeoAnswerForQuestionHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		key, err := svc.AnswerForQuestion(r.Context(), userID, chi.URLParam(r, "questionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]string{"likert_key": key})
	}
}

func NeoAnswersHandler(svc *neo.Service) http.HandlerFunc {
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

func NeoScoreHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		score, err := svc.Score(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, score)
	}
}

func FinishNeoHandler(svc *neo.Service) http.HandlerFunc {
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

func AdminResetNeoHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Reset(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

func NeoStatsHandler(svc *neo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.FinishedStats(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, stats)
	}
}
