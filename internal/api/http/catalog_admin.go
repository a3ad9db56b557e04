// internal/api/http/catalog_admin.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
)

var validate = validator.New()

type belbinQuestionReq struct {
	ID      string   `json:"id"`
	Number  int      `json:"number" validate:"required,min=1"`
	Title   string   `json:"title" validate:"required"`
	Options []string `json:"options" validate:"required,min=2,dive,required"`
}

func PutBelbinQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req belbinQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := catalog.BelbinQuestion{ID: req.ID, Number: req.Number, Title: req.Title}
		for _, text := range req.Options {
			q.Options = append(q.Options, catalog.BelbinOption{Text: text})
		}
		saved, err := store.PutBelbinQuestion(r.Context(), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func DeleteBelbinQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteBelbinQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type neoOptionReq struct {
	OptionNumber int    `json:"option_number" validate:"required,min=1"`
	OptionLabel  string `json:"option_label" validate:"required"`
	OptionScore  int    `json:"option_score"`
}

type neoQuestionReq struct {
	ID           string            `json:"id"`
	Number       int               `json:"number" validate:"required,min=1"`
	Title        string            `json:"title" validate:"required"`
	TraitType    string            `json:"trait_type" validate:"required"`
	LikertLabels map[string]string `json:"likert_labels"`
	Options      []neoOptionReq    `json:"options" validate:"required,min=1,dive"`
}

func PutNeoQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req neoQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := catalog.NeoQuestion{
			ID:           req.ID,
			Number:       req.Number,
			Title:        req.Title,
			TraitType:    assess.Trait(req.TraitType),
			LikertLabels: req.LikertLabels,
		}
		for _, o := range req.Options {
			q.Options = append(q.Options, catalog.NeoOption{
				OptionNumber: o.OptionNumber,
				OptionLabel:  o.OptionLabel,
				OptionScore:  o.OptionScore,
			})
		}
		saved, err := store.PutNeoQuestion(r.Context(), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func DeleteNeoQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteNeoQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PUT /admin/neo/likert-labels relabels the scale on every question.
func RelabelNeoLikertHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var labels map[string]string
		if err := json.NewDecoder(r.Body).Decode(&labels); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.RelabelNeoLikert(r.Context(), labels); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type generalExamReq struct {
	ID            string `json:"id"`
	Title         string `json:"title" validate:"required"`
	TimeBudgetMin int    `json:"time_budget_min" validate:"required,min=1"`
	Mode          string `json:"mode" validate:"required,oneof=public entrance"`
	ProjectID     string `json:"project_id"`
}

func PutGeneralExamHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generalExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, err := store.PutGeneralExam(r.Context(), catalog.GeneralExam{
			ID:            req.ID,
			Title:         req.Title,
			TimeBudgetMin: req.TimeBudgetMin,
			Mode:          assess.ExamMode(req.Mode),
			ProjectID:     req.ProjectID,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

type generalOptionReq struct {
	Title     string `json:"title" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type generalQuestionReq struct {
	ID      string             `json:"id"`
	Number  int                `json:"number" validate:"required,min=1"`
	Title   string             `json:"title" validate:"required"`
	Score   int                `json:"score" validate:"required,min=1"`
	Options []generalOptionReq `json:"options" validate:"required,min=2,dive"`
}

func PutGeneralQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generalQuestionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := catalog.GeneralQuestion{
			ID:     req.ID,
			ExamID: chi.URLParam(r, "examID"),
			Number: req.Number,
			Title:  req.Title,
			Score:  req.Score,
		}
		for _, o := range req.Options {
			q.Options = append(q.Options, catalog.GeneralOption{Title: o.Title, IsCorrect: o.IsCorrect})
		}
		saved, err := store.PutGeneralQuestion(r.Context(), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, saved)
	}
}

func DeleteGeneralQuestionHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteGeneralQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteGeneralExamHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteGeneralExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
