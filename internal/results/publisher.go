// Package results stores references to externally generated result
// artifacts, one live row per (user, track, exam). Uploads are
// administrative; participants only fetch their own reference.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/storage"
)

// StatusSource reports how far a participant got on a track; for the
// general track the exam id selects the sub-state.
type StatusSource interface {
	TrackStatus(ctx context.Context, userID string, track assess.Track, examID string) (assess.Status, error)
}

type ExamCatalog interface {
	GeneralExam(ctx context.Context, id string) (catalog.GeneralExam, error)
}

type Result struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	ExamType   assess.Track `json:"exam_type"`
	ExamID     string       `json:"exam_id,omitempty"`
	ResultRef  string       `json:"result_ref"`
	UploadedAt int64        `json:"uploaded_at"`
}

type Publisher struct {
	db     *sql.DB
	status StatusSource
	exams  ExamCatalog
	blobs  storage.ArtifactStore
	now    func() time.Time
}

func NewPublisher(db *sql.DB, status StatusSource, exams ExamCatalog, blobs storage.ArtifactStore) *Publisher {
	return &Publisher{db: db, status: status, exams: exams, blobs: blobs, now: time.Now}
}

// UserKeyFromFilename extracts the external user key embedded in an
// uploaded file name ("40123456789.pdf" -> "40123456789").
func UserKeyFromFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func (p *Publisher) userByExternalKey(ctx context.Context, key string) (string, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `SELECT id FROM users WHERE external_key=$1`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user with key %q: %w", key, assess.ErrNotFound)
	}
	return id, err
}

func (p *Publisher) validate(ctx context.Context, track assess.Track, examID string) error {
	if !track.Valid() {
		return fmt.Errorf("exam type %q: %w", track, assess.ErrNotFound)
	}
	if track == assess.TrackGeneral {
		if examID == "" {
			return fmt.Errorf("general result requires an exam id: %w", assess.ErrNotFound)
		}
		if _, err := p.exams.GeneralExam(ctx, examID); err != nil {
			return err
		}
	} else if examID != "" {
		return fmt.Errorf("exam id only applies to general results: %w", assess.ErrNotFound)
	}
	return nil
}

// Upload stores one artifact for the user identified by externalKey
// and replaces any previously stored reference for the same
// (user, track, exam). The participant must have finished the track
// first.
func (p *Publisher) Upload(ctx context.Context, externalKey string, track assess.Track, examID, filename string, r io.Reader) (Result, error) {
	if err := p.validate(ctx, track, examID); err != nil {
		return Result{}, err
	}
	userID, err := p.userByExternalKey(ctx, externalKey)
	if err != nil {
		return Result{}, err
	}
	status, err := p.status.TrackStatus(ctx, userID, track, examID)
	if err != nil {
		return Result{}, err
	}
	if status != assess.StatusFinished {
		return Result{}, assess.ErrNotYetCompleted
	}

	key := path.Join("results", string(track), userID, path.Base(filename))
	canonical, err := p.blobs.Put(key, r)
	if err != nil {
		return Result{}, fmt.Errorf("store artifact: %w", err)
	}
	ref, err := p.blobs.URL(canonical)
	if err != nil {
		return Result{}, err
	}
	return p.replace(ctx, userID, track, examID, ref)
}

// replace deletes any live row for the key and inserts the new one in
// a single transaction. Re-upload recreates rather than mutates.
func (p *Publisher) replace(ctx context.Context, userID string, track assess.Track, examID, ref string) (Result, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exam_results WHERE user_id=$1 AND exam_type=$2 AND exam_id=$3`,
		userID, string(track), examID); err != nil {
		return Result{}, err
	}
	res := Result{
		ID:         uuid.NewString(),
		UserID:     userID,
		ExamType:   track,
		ExamID:     examID,
		ResultRef:  ref,
		UploadedAt: p.now().Unix(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exam_results (id, user_id, exam_type, exam_id, result_ref, uploaded_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		res.ID, res.UserID, string(res.ExamType), res.ExamID, res.ResultRef, res.UploadedAt); err != nil {
		return Result{}, fmt.Errorf("insert result: %w", err)
	}
	return res, tx.Commit()
}

// Fetch returns the stored reference for the owning user.
func (p *Publisher) Fetch(ctx context.Context, userID string, track assess.Track, examID string) (Result, error) {
	var res Result
	var examType string
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, exam_type, exam_id, result_ref, uploaded_at
		 FROM exam_results WHERE user_id=$1 AND exam_type=$2 AND exam_id=$3`,
		userID, string(track), examID).
		Scan(&res.ID, &res.UserID, &examType, &res.ExamID, &res.ResultRef, &res.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, assess.ErrResultNotFound
	}
	if err != nil {
		return Result{}, err
	}
	res.ExamType = assess.Track(examType)
	return res, nil
}

// BatchEntry matches one externally generated artifact to a user by
// external key; ResultRef points at where the artifact was published.
type BatchEntry struct {
	ExternalKey string       `json:"external_key"`
	ExamType    assess.Track `json:"exam_type"`
	ExamID      string       `json:"exam_id,omitempty"`
	ResultRef   string       `json:"result_ref"`
}

// BatchReport summarizes a bulk upload run.
type BatchReport struct {
	Created    int      `json:"created"`
	Unmatched  []string `json:"unmatched_keys,omitempty"`
	Incomplete []string `json:"incomplete_keys,omitempty"`
}

// BatchUpload replaces result rows for every matched entry and reports
// the keys it had to skip.
func (p *Publisher) BatchUpload(ctx context.Context, entries []BatchEntry) (BatchReport, error) {
	var report BatchReport
	for _, e := range entries {
		if err := p.validate(ctx, e.ExamType, e.ExamID); err != nil {
			report.Unmatched = append(report.Unmatched, e.ExternalKey)
			continue
		}
		userID, err := p.userByExternalKey(ctx, e.ExternalKey)
		if err != nil {
			if errors.Is(err, assess.ErrNotFound) {
				report.Unmatched = append(report.Unmatched, e.ExternalKey)
				continue
			}
			return report, err
		}
		status, err := p.status.TrackStatus(ctx, userID, e.ExamType, e.ExamID)
		if err != nil {
			return report, err
		}
		if status != assess.StatusFinished {
			report.Incomplete = append(report.Incomplete, e.ExternalKey)
			continue
		}
		if _, err := p.replace(ctx, userID, e.ExamType, e.ExamID, e.ResultRef); err != nil {
			return report, err
		}
		report.Created++
	}
	return report, nil
}
