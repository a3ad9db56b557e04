package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh, "sqlite")
}

func TestPutBelbinQuestionRejectsDuplicateNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutBelbinQuestion(ctx, BelbinQuestion{
		Number:  1,
		Title:   "first",
		Options: []BelbinOption{{Text: "a"}, {Text: "b"}},
	})
	require.NoError(t, err)

	_, err = store.PutBelbinQuestion(ctx, BelbinQuestion{
		Number:  1,
		Title:   "second",
		Options: []BelbinOption{{Text: "a"}, {Text: "b"}},
	})
	require.ErrorIs(t, err, assess.ErrDuplicateQuestionNumber)
}

func TestPutBelbinQuestionReplacesOptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.PutBelbinQuestion(ctx, BelbinQuestion{
		Number:  1,
		Title:   "first",
		Options: []BelbinOption{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	})
	require.NoError(t, err)

	q.Options = []BelbinOption{{Text: "x"}, {Text: "y"}}
	q, err = store.PutBelbinQuestion(ctx, q)
	require.NoError(t, err)
	require.Len(t, q.Options, 2)
	assert.Equal(t, "x", q.Options[0].Text)

	got, err := store.BelbinQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, got.Options, 2)
}

func TestPutNeoQuestionValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutNeoQuestion(ctx, NeoQuestion{
		Number:    1,
		Title:     "q",
		TraitType: assess.Trait("charisma"),
		Options:   []NeoOption{{OptionNumber: 1, OptionLabel: "x", OptionScore: 1}},
	})
	require.ErrorIs(t, err, assess.ErrInvalidTrait)

	q, err := store.PutNeoQuestion(ctx, NeoQuestion{
		Number:    1,
		Title:     "q",
		TraitType: assess.TraitNeuroticism,
		Options:   []NeoOption{{OptionNumber: 1, OptionLabel: "x", OptionScore: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultLikertLabels(), q.LikertLabels)
}

func TestRelabelNeoLikert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.PutNeoQuestion(ctx, NeoQuestion{
		Number:    1,
		Title:     "q",
		TraitType: assess.TraitExtraversion,
		Options:   []NeoOption{{OptionNumber: 1, OptionLabel: "x", OptionScore: 1}},
	})
	require.NoError(t, err)

	labels := map[string]string{"1": "never", "2": "rarely", "3": "sometimes", "4": "often", "5": "always"}
	require.NoError(t, store.RelabelNeoLikert(ctx, labels))

	got, err := store.NeoQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, labels, got.LikertLabels)
}

func TestPutGeneralExamEntranceNeedsProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutGeneralExam(ctx, GeneralExam{
		Title:         "entrance",
		TimeBudgetMin: 30,
		Mode:          assess.ModeEntrance,
	})
	require.ErrorIs(t, err, assess.ErrProjectRequired)

	_, err = store.PutGeneralExam(ctx, GeneralExam{
		Title:         "entrance",
		TimeBudgetMin: 30,
		Mode:          assess.ModeEntrance,
		ProjectID:     "p1",
	})
	require.NoError(t, err)
}

func TestGeneralExamsModeFilterAndCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pub, err := store.PutGeneralExam(ctx, GeneralExam{Title: "open", TimeBudgetMin: 10, Mode: assess.ModePublic})
	require.NoError(t, err)
	_, err = store.PutGeneralExam(ctx, GeneralExam{Title: "gated", TimeBudgetMin: 20, Mode: assess.ModeEntrance, ProjectID: "p1"})
	require.NoError(t, err)

	_, err = store.PutGeneralQuestion(ctx, GeneralQuestion{
		ExamID: pub.ID,
		Number: 1,
		Title:  "q1",
		Score:  2,
		Options: []GeneralOption{
			{Title: "a", IsCorrect: true},
			{Title: "b"},
		},
	})
	require.NoError(t, err)

	all, err := store.GeneralExams(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := store.GeneralExams(ctx, assess.ModePublic)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pub.ID, open[0].ID)
	assert.Equal(t, 1, open[0].QuestionCount)
}

func TestPutGeneralQuestionChecks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.PutGeneralQuestion(ctx, GeneralQuestion{
		ExamID:  "missing-exam",
		Number:  1,
		Title:   "q",
		Score:   1,
		Options: []GeneralOption{{Title: "a", IsCorrect: true}, {Title: "b"}},
	})
	require.ErrorIs(t, err, assess.ErrNotFound)

	exam, err := store.PutGeneralExam(ctx, GeneralExam{Title: "e", TimeBudgetMin: 10, Mode: assess.ModePublic})
	require.NoError(t, err)
	q := GeneralQuestion{
		ExamID:  exam.ID,
		Number:  1,
		Title:   "q",
		Score:   1,
		Options: []GeneralOption{{Title: "a", IsCorrect: true}, {Title: "b"}},
	}
	_, err = store.PutGeneralQuestion(ctx, q)
	require.NoError(t, err)

	q.Title = "other"
	_, err = store.PutGeneralQuestion(ctx, q)
	require.ErrorIs(t, err, assess.ErrDuplicateQuestionNumber)
}

func TestDeleteGeneralExamCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exam, err := store.PutGeneralExam(ctx, GeneralExam{Title: "e", TimeBudgetMin: 10, Mode: assess.ModePublic})
	require.NoError(t, err)
	q, err := store.PutGeneralQuestion(ctx, GeneralQuestion{
		ExamID:  exam.ID,
		Number:  1,
		Title:   "q",
		Score:   1,
		Options: []GeneralOption{{Title: "a", IsCorrect: true}, {Title: "b"}},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteGeneralExam(ctx, exam.ID))
	_, err = store.GeneralExam(ctx, exam.ID)
	require.ErrorIs(t, err, assess.ErrNotFound)
	_, err = store.GeneralQuestion(ctx, q.ID)
	require.ErrorIs(t, err, assess.ErrNotFound)
}
