// internal/api/http/errors.go
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/talentroute/assessment-engine/internal/assess"
)

// writeErr maps domain sentinels onto HTTP statuses and emits a small
// JSON error body.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, assess.ErrNotFound),
		errors.Is(err, assess.ErrResultNotFound),
		errors.Is(err, assess.ErrNoMoreQuestions),
		errors.Is(err, assess.ErrNotAnswered):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, assess.ErrScoreSumExceeded),
		errors.Is(err, assess.ErrInvalidScore),
		errors.Is(err, assess.ErrInvalidLikertKey),
		errors.Is(err, assess.ErrOptionMismatch),
		errors.Is(err, assess.ErrQuestionNotInExam),
		errors.Is(err, assess.ErrTimeExpired),
		errors.Is(err, assess.ErrExamNotStarted),
		errors.Is(err, assess.ErrExamFinished),
		errors.Is(err, assess.ErrExamNotFinished),
		errors.Is(err, assess.ErrTrackIncomplete),
		errors.Is(err, assess.ErrDuplicateQuestionNumber),
		errors.Is(err, assess.ErrProjectRequired),
		errors.Is(err, assess.ErrInvalidTrait),
		errors.Is(err, assess.ErrNotYetCompleted):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, assess.ErrPrerequisiteNotMet):
		status, code = http.StatusForbidden, "prerequisite_not_met"
	case errors.Is(err, assess.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  code,
		"detail": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
