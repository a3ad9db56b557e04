// internal/api/http/results_handlers.go
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talentroute/assessment-engine/internal/assess"
	authmw "github.com/talentroute/assessment-engine/internal/auth/middleware"
	"github.com/talentroute/assessment-engine/internal/results"
)

// POST /admin/results/{track} (multipart). The participant is resolved
// from the file's base name unless user_key is given explicitly.
// General results also need exam_id.
func UploadResultHandler(pub *results.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		track := assess.Track(chi.URLParam(r, "track"))
		if !track.Valid() {
			http.Error(w, "unknown track", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := r.FormValue("user_key")
		if key == "" {
			key = results.UserKeyFromFilename(hdr.Filename)
		}
		res, err := pub.Upload(r.Context(), key, track, r.FormValue("exam_id"), hdr.Filename, f)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// POST /admin/results/batch with a JSON array of pre-stored refs.
func BatchUploadResultsHandler(pub *results.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []results.BatchEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		report, err := pub.BatchUpload(r.Context(), entries)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, report)
	}
}

// GET /results/{track}?exam_id= returns the caller's published result.
func MyResultHandler(pub *results.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		track := assess.Track(chi.URLParam(r, "track"))
		if !track.Valid() {
			http.Error(w, "unknown track", http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		res, err := pub.Fetch(r.Context(), userID, track, r.URL.Query().Get("exam_id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// GET /admin/results/{track}/{userID}?exam_id=
func UserResultHandler(pub *results.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		track := assess.Track(chi.URLParam(r, "track"))
		if !track.Valid() {
			http.Error(w, "unknown track", http.StatusBadRequest)
			return
		}
		res, err := pub.Fetch(r.Context(), chi.URLParam(r, "userID"), track, r.URL.Query().Get("exam_id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}
