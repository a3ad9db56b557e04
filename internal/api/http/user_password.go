// internal/api/http/user_password.go
package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/talentroute/assessment-engine/internal/assess"
	authmw "github.com/talentroute/assessment-engine/internal/auth/middleware"
)

const bcryptCost = 12

// POST /me/password  { "old_password": "...", "new_password": "..." }
//
// The subject from the token is the only user whose password can be
// changed here; admins rotate other users via the bulk upsert.
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.NewPassword == "" {
			http.Error(w, "new_password required", http.StatusBadRequest)
			return
		}

		var hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&hash)
		if errors.Is(err, sql.ErrNoRows) {
			writeErr(w, fmt.Errorf("user %s: %w", userID, assess.ErrNotFound))
			return
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OldPassword)) != nil {
			http.Error(w, "invalid credentials", http.StatusForbidden)
			return
		}

		next, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			writeErr(w, err)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1 WHERE id=$2`, next, userID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
