// Package progress persists the per-participant evaluation state. Each
// (user, track) pair owns one row, created lazily with default state,
// so tracks and users never contend with each other. Writes go through
// an optimistic-version read-modify-write loop: the same code path
// serializes concurrent submissions on sqlite and postgres alike.
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talentroute/assessment-engine/internal/assess"
)

// Record is one track's sub-state for one user. State holds the
// track-specific answer payload; the services decode it into their own
// types. Timestamps are unix seconds, zero meaning unset.
type Record struct {
	UserID     string          `json:"user_id"`
	Track      assess.Track    `json:"track"`
	Status     assess.Status   `json:"status"`
	StartedAt  int64           `json:"started_at,omitempty"`
	FinishedAt int64           `json:"finished_at,omitempty"`
	State      json.RawMessage `json:"state"`
	Version    int64           `json:"-"`
}

type Store interface {
	// GetOrCreate returns the record, inserting the default-initialized
	// row on first call. Idempotent.
	GetOrCreate(ctx context.Context, userID string, track assess.Track) (Record, error)

	// Update runs fn inside the optimistic-retry loop. fn may mutate
	// Status, StartedAt, FinishedAt and State; an error from fn aborts
	// the write and is returned unwrapped. Lost version races are
	// retried a bounded number of times before assess.ErrConflict.
	Update(ctx context.Context, userID string, track assess.Track, fn func(*Record) error) (Record, error)

	// CountFinished reports how many users reached finished on a track.
	CountFinished(ctx context.Context, track assess.Track) (int, error)
}

const maxRetries = 3

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func defaultState() json.RawMessage { return json.RawMessage(`{}`) }

func (s *SQLStore) GetOrCreate(ctx context.Context, userID string, track assess.Track) (Record, error) {
	if !track.Valid() {
		return Record{}, fmt.Errorf("track %q: %w", track, assess.ErrNotFound)
	}
	rec, err := s.get(ctx, userID, track)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress_tracks (user_id, track, status, started_at, finished_at, state_json, version)
		 VALUES ($1,$2,$3,0,0,$4,1) ON CONFLICT (user_id, track) DO NOTHING`,
		userID, string(track), string(assess.StatusStarted), string(defaultState()))
	if err != nil {
		return Record{}, fmt.Errorf("create progress record: %w", err)
	}
	// Re-read: a concurrent creator may have won the insert.
	rec, err = s.get(ctx, userID, track)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *SQLStore) get(ctx context.Context, userID string, track assess.Track) (Record, error) {
	var rec Record
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, track, status, started_at, finished_at, state_json, version
		 FROM progress_tracks WHERE user_id=$1 AND track=$2`, userID, string(track)).
		Scan(&rec.UserID, &rec.Track, &rec.Status, &rec.StartedAt, &rec.FinishedAt, &state, &rec.Version)
	if err != nil {
		return Record{}, err
	}
	rec.State = json.RawMessage(state)
	return rec, nil
}

func (s *SQLStore) Update(ctx context.Context, userID string, track assess.Track, fn func(*Record) error) (Record, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		rec, err := s.GetOrCreate(ctx, userID, track)
		if err != nil {
			return Record{}, err
		}
		if err := fn(&rec); err != nil {
			return Record{}, err
		}

		res, err := s.db.ExecContext(ctx,
			`UPDATE progress_tracks SET status=$1, started_at=$2, finished_at=$3, state_json=$4, version=version+1
			 WHERE user_id=$5 AND track=$6 AND version=$7`,
			string(rec.Status), rec.StartedAt, rec.FinishedAt, string(rec.State),
			userID, string(track), rec.Version)
		if err != nil {
			return Record{}, fmt.Errorf("write progress record: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Record{}, err
		}
		if n == 1 {
			rec.Version++
			return rec, nil
		}
		// Version moved underneath us; retry on a fresh read.
	}
	return Record{}, fmt.Errorf("progress %s/%s: %w", userID, track, assess.ErrConflict)
}

func (s *SQLStore) CountFinished(ctx context.Context, track assess.Track) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM progress_tracks WHERE track=$1 AND status=$2`,
		string(track), string(assess.StatusFinished)).Scan(&n)
	return n, err
}
