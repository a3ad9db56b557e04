// internal/api/http/general_handlers.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talentroute/assessment-engine/internal/assess"
	authmw "github.com/talentroute/assessment-engine/internal/auth/middleware"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/general"
)

// GET /general/exams?mode=public|entrance
func ListGeneralExamsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := assess.ExamMode(r.URL.Query().Get("mode"))
		exams, err := store.GeneralExams(r.Context(), mode)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, exams)
	}
}

// GET /general/exams/{examID} returns the exam with its questions, but
// never the answer key.
func GetGeneralExamHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exam, err := store.GeneralExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		for i := range exam.Questions {
			for j := range exam.Questions[i].Options {
				exam.Questions[i].Options[j].IsCorrect = false
			}
		}
		writeJSON(w, exam)
	}
}

func StartGeneralExamHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		view, err := svc.Start(r.Context(), userID, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

// POST /general/exams/{examID}/answers  { "question_id": "...", "option_id": "..." }
func SubmitGeneralAnswerHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			OptionID   string `json:"option_id"`
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
		view, err := svc.SubmitAnswer(r.Context(), userID, chi.URLParam(r, "examID"), req.QuestionID, req.OptionID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

func FinishGeneralExamHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		view, err := svc.Finish(r.Context(), userID, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

func GeneralAnswersHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		view, err := svc.Answers(r.Context(), userID, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

func GeneralStatusHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		info, err := svc.Status(r.Context(), userID, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, info)
	}
}

func GeneralScoreHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		score, err := svc.Score(r.Context(), userID, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]int{"total_score": score})
	}
}

// AdminResetGeneralExamHandler clears answers for one exam while
// keeping the original start time, so the clock keeps running.
func AdminResetGeneralExamHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Reset(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, view)
	}
}

// GET /general/my-exams lists exams the caller has entered.
func UserExamsHandler(svc *general.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		out, err := svc.UserExams(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, out)
	}
}
