package belbin

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/db"
	"github.com/talentroute/assessment-engine/internal/progress"
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

// seeds two questions with three options each and returns them in
// number order.
func seedQuestions(t *testing.T, store catalog.Store) []catalog.BelbinQuestion {
	t.Helper()
	ctx := context.Background()
	var out []catalog.BelbinQuestion
	for i, title := range []string{"contribution to a team", "shortcomings at work"} {
		q, err := store.PutBelbinQuestion(ctx, catalog.BelbinQuestion{
			Number: i + 1,
			Title:  title,
			Options: []catalog.BelbinOption{
				{Text: "option a"},
				{Text: "option b"},
				{Text: "option c"},
			},
		})
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}

func newBelbin(t *testing.T) (*Service, []catalog.BelbinQuestion) {
	t.Helper()
	dbh := newTestDB(t)
	store := catalog.NewSQLStore(dbh, "sqlite")
	svc := NewService(store, progress.NewSQLStore(dbh))
	return svc, seedQuestions(t, store)
}

func TestSubmitAnswerEnforcesBudget(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()
	q := qs[0]

	_, err := svc.SubmitAnswer(ctx, "u1", q.ID, q.Options[0].ID, 6)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, "u1", q.ID, q.Options[1].ID, 3)
	require.NoError(t, err)

	// 6+3 already spent, 2 more would exceed the 10-point budget.
	_, err = svc.SubmitAnswer(ctx, "u1", q.ID, q.Options[2].ID, 2)
	require.ErrorIs(t, err, assess.ErrScoreSumExceeded)

	// Resubmitting an option replaces its score before the check.
	st, err := svc.SubmitAnswer(ctx, "u1", q.ID, q.Options[1].ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Answers[q.ID][q.Options[1].ID])

	// The rejected write left nothing behind.
	assert.NotContains(t, st.Answers[q.ID], q.Options[2].ID)
}

func TestSubmitAnswerValidation(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	_, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[0].Options[0].ID, 11)
	require.ErrorIs(t, err, assess.ErrInvalidScore)

	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[0].Options[0].ID, -1)
	require.ErrorIs(t, err, assess.ErrInvalidScore)

	// Option belongs to another question.
	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[1].Options[0].ID, 5)
	require.ErrorIs(t, err, assess.ErrOptionMismatch)

	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, "missing-option", 5)
	require.ErrorIs(t, err, assess.ErrNotFound)

	// An unknown question id is NotFound even when the option id is a
	// real option of some other question.
	_, err = svc.SubmitAnswer(ctx, "u1", "missing-question", qs[1].Options[0].ID, 5)
	require.ErrorIs(t, err, assess.ErrNotFound)
}

func TestSubmitAnswerStampsStart(t *testing.T) {
	svc, qs := newBelbin(t)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	ctx := context.Background()

	st, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[0].Options[0].ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1700000000, st.StartedAt)

	// The stamp does not move on later submissions.
	svc.now = func() time.Time { return time.Unix(1700000100, 0) }
	st, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[0].Options[1].ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1700000000, st.StartedAt)
}

func fillQuestion(t *testing.T, svc *Service, user string, q catalog.BelbinQuestion) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SubmitAnswer(ctx, user, q.ID, q.Options[0].ID, 7)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, user, q.ID, q.Options[1].ID, 3)
	require.NoError(t, err)
}

func TestAutoFinishOnCompleteDistribution(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	fillQuestion(t, svc, "u1", qs[0])
	st, err := svc.Answers(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusStarted, st.Status)

	fillQuestion(t, svc, "u1", qs[1])
	st, err = svc.Answers(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusFinished, st.Status)
	assert.NotZero(t, st.FinishedAt)
}

func TestFinishRefusesIncompleteTrack(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	fillQuestion(t, svc, "u1", qs[0])
	_, err := svc.Finish(ctx, "u1")
	require.ErrorIs(t, err, assess.ErrTrackIncomplete)

	fillQuestion(t, svc, "u1", qs[1])
	st, err := svc.Finish(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusFinished, st.Status)
}

func TestNextQuestionWalksByNumber(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	q, err := svc.NextQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, qs[0].ID, q.ID)

	// Any recorded answer counts as visited, even a partial one.
	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, qs[0].Options[0].ID, 4)
	require.NoError(t, err)
	q, err = svc.NextQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, qs[1].ID, q.ID)

	_, err = svc.SubmitAnswer(ctx, "u1", qs[1].ID, qs[1].Options[0].ID, 4)
	require.NoError(t, err)
	_, err = svc.NextQuestion(ctx, "u1")
	require.ErrorIs(t, err, assess.ErrNoMoreQuestions)
}

func TestResetClearsTrack(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	fillQuestion(t, svc, "u1", qs[0])
	fillQuestion(t, svc, "u1", qs[1])

	st, err := svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusStarted, st.Status)
	assert.Zero(t, st.StartedAt)
	assert.Empty(t, st.Answers)

	// The track is retakeable from scratch.
	q, err := svc.NextQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, qs[0].ID, q.ID)
}

func TestFinishedStats(t *testing.T) {
	svc, qs := newBelbin(t)
	ctx := context.Background()

	for _, q := range qs {
		fillQuestion(t, svc, "u1", q)
	}
	fillQuestion(t, svc, "u2", qs[0])

	stats, err := svc.FinishedStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FinishedUsers)
	assert.Equal(t, 2, stats.QuestionCount)
}
