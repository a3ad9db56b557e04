package neo

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

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

// seeds three questions across two traits with options scored 1..5
// matching the likert keys.
func seedNeo(t *testing.T, store catalog.Store) []catalog.NeoQuestion {
	t.Helper()
	ctx := context.Background()
	specs := []struct {
		title string
		trait assess.Trait
	}{
		{"I enjoy meeting new people", assess.TraitExtraversion},
		{"I finish what I start", assess.TraitDutifulness},
		{"I am the life of the party", assess.TraitExtraversion},
	}
	var out []catalog.NeoQuestion
	for i, sp := range specs {
		q := catalog.NeoQuestion{Number: i + 1, Title: sp.title, TraitType: sp.trait}
		for n := 1; n <= 5; n++ {
			q.Options = append(q.Options, catalog.NeoOption{
				OptionNumber: n,
				OptionLabel:  catalog.DefaultLikertLabels()[strconv.Itoa(n)],
				OptionScore:  n,
			})
		}
		saved, err := store.PutNeoQuestion(ctx, q)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func newNeo(t *testing.T) (*Service, []catalog.NeoQuestion) {
	t.Helper()
	dbh := newTestDB(t)
	store := catalog.NewSQLStore(dbh, "sqlite")
	svc := NewService(store, progress.NewSQLStore(dbh))
	return svc, seedNeo(t, store)
}

func TestSubmitAnswerOverwrites(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	st, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", st.Answers[qs[0].ID])

	st, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, "5")
	require.NoError(t, err)
	assert.Equal(t, "5", st.Answers[qs[0].ID])
	assert.Len(t, st.Answers, 1)
}

func TestSubmitAnswerRejectsUnknownKey(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	_, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, "6")
	require.ErrorIs(t, err, assess.ErrInvalidLikertKey)

	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, "agree")
	require.ErrorIs(t, err, assess.ErrInvalidLikertKey)

	_, err = svc.SubmitAnswer(ctx, "u1", "missing-question", "3")
	require.ErrorIs(t, err, assess.ErrNotFound)
}

func TestAutoFinishWhenAllAnswered(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	for i, q := range qs {
		st, err := svc.SubmitAnswer(ctx, "u1", q.ID, "3")
		require.NoError(t, err)
		if i < len(qs)-1 {
			assert.Equal(t, assess.StatusStarted, st.Status)
		} else {
			assert.Equal(t, assess.StatusFinished, st.Status)
			assert.NotZero(t, st.FinishedAt)
		}
	}
}

func TestNavigateBoundaries(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	q, err := svc.Navigate(ctx, qs[0].ID, catalog.Next)
	require.NoError(t, err)
	assert.Equal(t, qs[1].ID, q.ID)

	q, err = svc.Navigate(ctx, qs[1].ID, catalog.Previous)
	require.NoError(t, err)
	assert.Equal(t, qs[0].ID, q.ID)

	_, err = svc.Navigate(ctx, qs[0].ID, catalog.Previous)
	require.ErrorIs(t, err, assess.ErrNoMoreQuestions)
	_, err = svc.Navigate(ctx, qs[2].ID, catalog.Next)
	require.ErrorIs(t, err, assess.ErrNoMoreQuestions)
}

func TestScorePerTrait(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	_, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, "4") // extraversion
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, "u1", qs[1].ID, "2") // dutifulness
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, "u1", qs[2].ID, "5") // extraversion
	require.NoError(t, err)

	score, err := svc.Score(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 9, score[assess.TraitExtraversion])
	assert.Equal(t, 2, score[assess.TraitDutifulness])
	assert.Equal(t, 0, score[assess.TraitNeuroticism])
}

func TestAnswerForQuestion(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	_, err := svc.AnswerForQuestion(ctx, "u1", qs[0].ID)
	require.ErrorIs(t, err, assess.ErrNotAnswered)

	_, err = svc.SubmitAnswer(ctx, "u1", qs[0].ID, "1")
	require.NoError(t, err)
	key, err := svc.AnswerForQuestion(ctx, "u1", qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1", key)
}

func TestFinishRequiresAllAnswers(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	_, err := svc.SubmitAnswer(ctx, "u1", qs[0].ID, "3")
	require.NoError(t, err)
	_, err = svc.Finish(ctx, "u1")
	require.ErrorIs(t, err, assess.ErrTrackIncomplete)
}

func TestResetThenRetake(t *testing.T) {
	svc, qs := newNeo(t)
	ctx := context.Background()

	for _, q := range qs {
		_, err := svc.SubmitAnswer(ctx, "u1", q.ID, "3")
		require.NoError(t, err)
	}
	st, err := svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assess.StatusStarted, st.Status)
	assert.Empty(t, st.Answers)

	q, err := svc.NextQuestion(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, qs[0].ID, q.ID)
}
