package results

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/db"
	"github.com/talentroute/assessment-engine/internal/storage"
)

type fakeStatus map[string]assess.Status // key: userID|track|examID

func (f fakeStatus) TrackStatus(_ context.Context, userID string, track assess.Track, examID string) (assess.Status, error) {
	if st, ok := f[userID+"|"+string(track)+"|"+examID]; ok {
		return st, nil
	}
	return assess.StatusStarted, nil
}

type fakeExams map[string]catalog.GeneralExam

func (f fakeExams) GeneralExam(_ context.Context, id string) (catalog.GeneralExam, error) {
	e, ok := f[id]
	if !ok {
		return catalog.GeneralExam{}, assess.ErrNotFound
	}
	return e, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func seedUser(t *testing.T, dbh *sql.DB, id, externalKey string) {
	t.Helper()
	_, err := dbh.Exec(
		`INSERT INTO users (id, username, external_key, role, password_hash) VALUES ($1,$2,$3,'participant','x')`,
		id, id, externalKey)
	require.NoError(t, err)
}

func newPublisher(t *testing.T, status fakeStatus, exams fakeExams) (*Publisher, *sql.DB) {
	t.Helper()
	dbh := newTestDB(t)
	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	pub := NewPublisher(dbh, status, exams, bs)
	pub.now = func() time.Time { return time.Unix(1700000000, 0) }
	return pub, dbh
}

func TestUserKeyFromFilename(t *testing.T) {
	assert.Equal(t, "40123456789", UserKeyFromFilename("40123456789.pdf"))
	assert.Equal(t, "40123456789", UserKeyFromFilename("reports/40123456789.pdf"))
	assert.Equal(t, "40123456789", UserKeyFromFilename(`C:\reports\40123456789.pdf`))
	assert.Equal(t, "noext", UserKeyFromFilename("noext"))
}

func TestUploadRequiresFinishedTrack(t *testing.T) {
	pub, dbh := newPublisher(t, fakeStatus{}, fakeExams{})
	seedUser(t, dbh, "u1", "40123456789")

	_, err := pub.Upload(context.Background(), "40123456789", assess.TrackBelbin,
		"", "40123456789.pdf", strings.NewReader("%PDF"))
	require.ErrorIs(t, err, assess.ErrNotYetCompleted)
}

func TestUploadAndFetch(t *testing.T) {
	status := fakeStatus{"u1|belbin|": assess.StatusFinished}
	pub, dbh := newPublisher(t, status, fakeExams{})
	seedUser(t, dbh, "u1", "40123456789")
	ctx := context.Background()

	res, err := pub.Upload(ctx, "40123456789", assess.TrackBelbin,
		"", "40123456789.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "u1", res.UserID)
	assert.Contains(t, res.ResultRef, "40123456789.pdf")
	assert.EqualValues(t, 1700000000, res.UploadedAt)

	got, err := pub.Fetch(ctx, "u1", assess.TrackBelbin, "")
	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)

	// Re-upload replaces the live row rather than stacking a second one.
	res2, err := pub.Upload(ctx, "40123456789", assess.TrackBelbin,
		"", "40123456789.pdf", strings.NewReader("%PDF v2"))
	require.NoError(t, err)
	assert.NotEqual(t, res.ID, res2.ID)

	var n int
	require.NoError(t, dbh.QueryRow(`SELECT COUNT(*) FROM exam_results WHERE user_id='u1'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestUploadUnknownKey(t *testing.T) {
	pub, _ := newPublisher(t, fakeStatus{}, fakeExams{})
	_, err := pub.Upload(context.Background(), "nobody", assess.TrackBelbin,
		"", "nobody.pdf", strings.NewReader("%PDF"))
	require.ErrorIs(t, err, assess.ErrNotFound)
}

func TestGeneralResultsNeedExamID(t *testing.T) {
	exams := fakeExams{"e1": {ID: "e1", Title: "aptitude"}}
	status := fakeStatus{"u1|general|e1": assess.StatusFinished}
	pub, dbh := newPublisher(t, status, exams)
	seedUser(t, dbh, "u1", "k1")
	ctx := context.Background()

	_, err := pub.Upload(ctx, "k1", assess.TrackGeneral, "", "k1.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, assess.ErrNotFound)

	_, err = pub.Upload(ctx, "k1", assess.TrackGeneral, "missing-exam", "k1.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, assess.ErrNotFound)

	res, err := pub.Upload(ctx, "k1", assess.TrackGeneral, "e1", "k1.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "e1", res.ExamID)

	// Exam id on a non-general track is rejected.
	_, err = pub.Upload(ctx, "k1", assess.TrackNeo, "e1", "k1.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, assess.ErrNotFound)
}

func TestResultsArePerExam(t *testing.T) {
	exams := fakeExams{"e1": {ID: "e1"}, "e2": {ID: "e2"}}
	status := fakeStatus{
		"u1|general|e1": assess.StatusFinished,
		"u1|general|e2": assess.StatusFinished,
	}
	pub, dbh := newPublisher(t, status, exams)
	seedUser(t, dbh, "u1", "k1")
	ctx := context.Background()

	_, err := pub.Upload(ctx, "k1", assess.TrackGeneral, "e1", "k1.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = pub.Upload(ctx, "k1", assess.TrackGeneral, "e2", "k1.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	var n int
	require.NoError(t, dbh.QueryRow(`SELECT COUNT(*) FROM exam_results WHERE user_id='u1'`).Scan(&n))
	assert.Equal(t, 2, n)

	_, err = pub.Fetch(ctx, "u1", assess.TrackGeneral, "e1")
	require.NoError(t, err)
	_, err = pub.Fetch(ctx, "u1", assess.TrackGeneral, "e3")
	require.ErrorIs(t, err, assess.ErrResultNotFound)
}

func TestBatchUploadReportsSkips(t *testing.T) {
	status := fakeStatus{
		"u1|belbin|": assess.StatusFinished,
		"u2|belbin|": assess.StatusStarted,
	}
	pub, dbh := newPublisher(t, status, fakeExams{})
	seedUser(t, dbh, "u1", "k1")
	seedUser(t, dbh, "u2", "k2")

	report, err := pub.BatchUpload(context.Background(), []BatchEntry{
		{ExternalKey: "k1", ExamType: assess.TrackBelbin, ResultRef: "file:///r/k1.pdf"},
		{ExternalKey: "k2", ExamType: assess.TrackBelbin, ResultRef: "file:///r/k2.pdf"},
		{ExternalKey: "ghost", ExamType: assess.TrackBelbin, ResultRef: "file:///r/ghost.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, []string{"k2"}, report.Incomplete)
	assert.Equal(t, []string{"ghost"}, report.Unmatched)
}
