package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	rec, err := store.GetOrCreate(ctx, "u1", assess.TrackBelbin)
	require.NoError(t, err)
	assert.Equal(t, assess.StatusStarted, rec.Status)
	assert.EqualValues(t, 1, rec.Version)
	assert.JSONEq(t, `{}`, string(rec.State))

	again, err := store.GetOrCreate(ctx, "u1", assess.TrackBelbin)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestTracksAreIndependent(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	_, err := store.Update(ctx, "u1", assess.TrackBelbin, func(r *Record) error {
		r.Status = assess.StatusFinished
		return nil
	})
	require.NoError(t, err)

	rec, err := store.GetOrCreate(ctx, "u1", assess.TrackNeo)
	require.NoError(t, err)
	assert.Equal(t, assess.StatusStarted, rec.Status)
}

func TestUpdateBumpsVersion(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	rec, err := store.Update(ctx, "u1", assess.TrackNeo, func(r *Record) error {
		r.State = json.RawMessage(`{"answers":{"q1":"3"}}`)
		r.StartedAt = 1700000000
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.Version)

	got, err := store.GetOrCreate(ctx, "u1", assess.TrackNeo)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answers":{"q1":"3"}}`, string(got.State))
	assert.EqualValues(t, 1700000000, got.StartedAt)
}

func TestUpdateErrorLeavesRowUntouched(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	_, err := store.Update(ctx, "u1", assess.TrackGeneral, func(r *Record) error {
		r.State = json.RawMessage(`{"exams":{}}`)
		return assess.ErrTimeExpired
	})
	require.ErrorIs(t, err, assess.ErrTimeExpired)

	rec, err := store.GetOrCreate(ctx, "u1", assess.TrackGeneral)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(rec.State))
	assert.EqualValues(t, 1, rec.Version)
}

func TestUpdateRetriesLostRace(t *testing.T) {
	dbh := newTestDB(t)
	store := NewSQLStore(dbh)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "u1", assess.TrackBelbin)
	require.NoError(t, err)

	// First fn invocation loses its version to a sneaked-in writer;
	// the retry must see the new state and win.
	calls := 0
	rec, err := store.Update(ctx, "u1", assess.TrackBelbin, func(r *Record) error {
		calls++
		if calls == 1 {
			_, err := dbh.ExecContext(ctx,
				`UPDATE progress_tracks SET version=version+1 WHERE user_id=$1 AND track=$2`,
				"u1", string(assess.TrackBelbin))
			require.NoError(t, err)
		}
		r.FinishedAt = 1700000000
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 1700000000, rec.FinishedAt)
}

func TestUpdateGivesUpAfterRetries(t *testing.T) {
	dbh := newTestDB(t)
	store := NewSQLStore(dbh)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "u1", assess.TrackBelbin)
	require.NoError(t, err)

	_, err = store.Update(ctx, "u1", assess.TrackBelbin, func(r *Record) error {
		_, err := dbh.ExecContext(ctx,
			`UPDATE progress_tracks SET version=version+1 WHERE user_id=$1 AND track=$2`,
			"u1", string(assess.TrackBelbin))
		require.NoError(t, err)
		return nil
	})
	require.ErrorIs(t, err, assess.ErrConflict)
}

func TestCountFinished(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := context.Background()

	finish := func(user string) {
		_, err := store.Update(ctx, user, assess.TrackNeo, func(r *Record) error {
			r.Status = assess.StatusFinished
			return nil
		})
		require.NoError(t, err)
	}
	finish("u1")
	finish("u2")
	_, err := store.GetOrCreate(ctx, "u3", assess.TrackNeo)
	require.NoError(t, err)

	n, err := store.CountFinished(ctx, assess.TrackNeo)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.CountFinished(ctx, assess.TrackBelbin)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnknownTrackRejected(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	_, err := store.GetOrCreate(context.Background(), "u1", assess.Track("astrology"))
	require.ErrorIs(t, err, assess.ErrNotFound)
}
