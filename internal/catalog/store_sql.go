package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talentroute/assessment-engine/internal/assess"
)

// SQLStore keeps the catalog in SQL tables. The same statements run on
// sqlite and postgres, so the driver name is only kept for diagnostics.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func newID() string { return uuid.NewString() }

/* ---------------- Belbin ---------------- */

func (s *SQLStore) BelbinQuestions(ctx context.Context) ([]BelbinQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, number, title FROM belbin_questions ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list belbin questions: %w", err)
	}
	defer rows.Close()

	var qs []BelbinQuestion
	for rows.Next() {
		var q BelbinQuestion
		if err := rows.Scan(&q.ID, &q.Number, &q.Title); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range qs {
		opts, err := s.belbinOptions(ctx, qs[i].ID)
		if err != nil {
			return nil, err
		}
		qs[i].Options = opts
	}
	return qs, nil
}

func (s *SQLStore) BelbinQuestion(ctx context.Context, id string) (BelbinQuestion, error) {
	var q BelbinQuestion
	err := s.db.QueryRowContext(ctx,
		`SELECT id, number, title FROM belbin_questions WHERE id=$1`, id).
		Scan(&q.ID, &q.Number, &q.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return BelbinQuestion{}, fmt.Errorf("belbin question %s: %w", id, assess.ErrNotFound)
	}
	if err != nil {
		return BelbinQuestion{}, err
	}
	q.Options, err = s.belbinOptions(ctx, q.ID)
	return q, err
}

func (s *SQLStore) belbinOptions(ctx context.Context, questionID string) ([]BelbinOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text FROM belbin_options WHERE question_id=$1 ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []BelbinOption
	for rows.Next() {
		var o BelbinOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

func (s *SQLStore) BelbinOption(ctx context.Context, id string) (BelbinOption, error) {
	var o BelbinOption
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, text FROM belbin_options WHERE id=$1`, id).
		Scan(&o.ID, &o.QuestionID, &o.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return BelbinOption{}, fmt.Errorf("belbin option %s: %w", id, assess.ErrNotFound)
	}
	return o, err
}

func (s *SQLStore) BelbinQuestionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM belbin_questions`).Scan(&n)
	return n, err
}

// PutBelbinQuestion upserts a question and replaces its option set.
func (s *SQLStore) PutBelbinQuestion(ctx context.Context, q BelbinQuestion) (BelbinQuestion, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BelbinQuestion{}, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM belbin_questions WHERE number=$1`, q.Number).Scan(&existing)
	if err == nil && existing != q.ID {
		return BelbinQuestion{}, fmt.Errorf("belbin question number %d: %w", q.Number, assess.ErrDuplicateQuestionNumber)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return BelbinQuestion{}, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO belbin_questions (id, number, title) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET number=EXCLUDED.number, title=EXCLUDED.title`,
		q.ID, q.Number, q.Title); err != nil {
		return BelbinQuestion{}, fmt.Errorf("upsert belbin question: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM belbin_options WHERE question_id=$1`, q.ID); err != nil {
		return BelbinQuestion{}, err
	}
	for i := range q.Options {
		q.Options[i].ID = newID()
		q.Options[i].QuestionID = q.ID
		if _, err := tx.ExecContext(ctx, `INSERT INTO belbin_options (id, question_id, text) VALUES ($1,$2,$3)`,
			q.Options[i].ID, q.ID, q.Options[i].Text); err != nil {
			return BelbinQuestion{}, err
		}
	}
	return q, tx.Commit()
}

func (s *SQLStore) DeleteBelbinQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM belbin_options WHERE question_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM belbin_questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("belbin question %s: %w", id, assess.ErrNotFound)
	}
	return tx.Commit()
}
