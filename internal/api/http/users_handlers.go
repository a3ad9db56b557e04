package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRow struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	ExternalKey string `json:"external_key"`
	Role        string `json:"role"`               // usually "participant"
	Password    string `json:"password,omitempty"` // plaintext optional (LAN-only)
}

// BulkUpsertUsersHandler provisions participant accounts from a JSON
// array or an uploaded CSV/JSON file. The external key is what result
// files are matched against later.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", 400)
				return
			}
			defer f.Close()
			// sniff simple CSV vs JSON by first non-space byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", 400)
				return
			}
			if _, err := f.(io.Seeker).Seek(0, io.SeekStart); err != nil {
				http.Error(w, "unseekable upload", 400)
				return
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", 400)
					return
				}
			} else {
				rs, err := parseUsersCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), 400)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", 400)
				return
			}
		}
		if len(rows) == 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"inserted": ins, "updated": upd})
	}
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, external_key, role, resume_completed FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, external_key, role, resume_completed FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		type listed struct {
			ID             string `json:"id"`
			Username       string `json:"username"`
			ExternalKey    string `json:"external_key"`
			Role           string `json:"role"`
			ResumeComplete bool   `json:"resume_completed"`
		}
		out := []listed{}
		for rows.Next() {
			var u listed
			var done int
			if err := rows.Scan(&u.ID, &u.Username, &u.ExternalKey, &u.Role, &done); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			u.ResumeComplete = done != 0
			out = append(out, u)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// SetResumeCompletedHandler is the hook the resume collaborator calls
// when a participant finishes (or reopens) their resume.
func SetResumeCompletedHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string `json:"user_id"`
			Completed bool   `json:"completed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", 400)
			return
		}
		done := 0
		if req.Completed {
			done = 1
		}
		res, err := db.ExecContext(r.Context(),
			`UPDATE users SET resume_completed=$1 WHERE id=$2`, done, req.UserID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "user not found", 404)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseUsersCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"id", "username", "role"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			ID:       rec[idx["id"]],
			Username: rec[idx["username"]],
			Role:     strings.ToLower(rec[idx["role"]]),
		}
		if i, ok := idx["external_key"]; ok {
			row.ExternalKey = rec[i]
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Role == "" {
			r.Role = "participant"
		}
		if r.Role != "participant" && r.Role != "admin" {
			return inserted, updated, errors.New("invalid role: " + r.Role)
		}
		if r.ExternalKey == "" {
			r.ExternalKey = r.Username
		}
		// Hash password if provided (LAN-only flow). If empty, keep existing hash or reject if new.
		var phash string
		if r.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(r.Password), bcryptCost)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1 OR username=$2`, r.ID, r.Username).Scan(new(int)); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		if exists {
			if phash != "" {
				_, err = tx.ExecContext(ctx,
					`UPDATE users SET username=$1, external_key=$2, role=$3, password_hash=$4 WHERE id=$5`,
					r.Username, r.ExternalKey, r.Role, phash, r.ID)
			} else {
				_, err = tx.ExecContext(ctx,
					`UPDATE users SET username=$1, external_key=$2, role=$3 WHERE id=$4`,
					r.Username, r.ExternalKey, r.Role, r.ID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		} else {
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + r.Username)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, external_key, password_hash, role, resume_completed) VALUES ($1,$2,$3,$4,$5,0)`,
				r.ID, r.Username, r.ExternalKey, phash, r.Role)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		}
	}
	return
}
