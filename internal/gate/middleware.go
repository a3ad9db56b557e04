package gate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/talentroute/assessment-engine/internal/assess"
	auth "github.com/talentroute/assessment-engine/internal/auth/middleware"
)

// RequireResume blocks track mutations until the participant's résumé
// is marked complete. Lookup failures are not policy denials and
// surface as 500.
func RequireResume(c Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := auth.SubjectFromContext(r.Context())
			done, err := c.Completed(r.Context(), sub)
			if err != nil {
				if errors.Is(err, assess.ErrPrerequisiteNotMet) {
					deny(w)
					return
				}
				http.Error(w, "resume check failed", http.StatusInternalServerError)
				return
			}
			if !done {
				deny(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  "resume_incomplete",
		"detail": "complete your resume before taking assessments",
	})
}
