// internal/api/http/artifacts.go
package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/talentroute/assessment-engine/internal/storage"
)

// MountArtifacts serves uploaded result files back by blob key.
// Result rows carry the key in result_ref.
func MountArtifacts(r chi.Router, bs storage.ArtifactStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
