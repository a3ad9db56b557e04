package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talentroute/assessment-engine/internal/assess"
)

func (s *SQLStore) GeneralExams(ctx context.Context, mode assess.ExamMode) ([]GeneralExam, error) {
	query := `SELECT id, title, time_budget_min, mode, project_id FROM general_exams ORDER BY title`
	args := []any{}
	if mode != "" {
		query = `SELECT id, title, time_budget_min, mode, project_id FROM general_exams WHERE mode=$1 ORDER BY title`
		args = append(args, string(mode))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list general exams: %w", err)
	}
	defer rows.Close()

	var exams []GeneralExam
	for rows.Next() {
		var e GeneralExam
		if err := rows.Scan(&e.ID, &e.Title, &e.TimeBudgetMin, &e.Mode, &e.ProjectID); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range exams {
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM general_questions WHERE exam_id=$1`, exams[i].ID).
			Scan(&exams[i].QuestionCount); err != nil {
			return nil, err
		}
	}
	return exams, nil
}

// GeneralExam loads the exam with its full question and option rows,
// answer keys included. Callers serving participants strip IsCorrect.
func (s *SQLStore) GeneralExam(ctx context.Context, id string) (GeneralExam, error) {
	var e GeneralExam
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, time_budget_min, mode, project_id FROM general_exams WHERE id=$1`, id).
		Scan(&e.ID, &e.Title, &e.TimeBudgetMin, &e.Mode, &e.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return GeneralExam{}, fmt.Errorf("general exam %s: %w", id, assess.ErrNotFound)
	}
	if err != nil {
		return GeneralExam{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, number, title, score FROM general_questions WHERE exam_id=$1 ORDER BY number`, id)
	if err != nil {
		return GeneralExam{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var q GeneralQuestion
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Number, &q.Title, &q.Score); err != nil {
			return GeneralExam{}, err
		}
		e.Questions = append(e.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return GeneralExam{}, err
	}
	for i := range e.Questions {
		opts, err := s.generalOptions(ctx, e.Questions[i].ID)
		if err != nil {
			return GeneralExam{}, err
		}
		e.Questions[i].Options = opts
	}
	e.QuestionCount = len(e.Questions)
	return e, nil
}

func (s *SQLStore) generalOptions(ctx context.Context, questionID string) ([]GeneralOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, title, is_correct FROM general_options WHERE question_id=$1 ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []GeneralOption
	for rows.Next() {
		var o GeneralOption
		var correct int
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Title, &correct); err != nil {
			return nil, err
		}
		o.IsCorrect = correct != 0
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

func (s *SQLStore) GeneralQuestion(ctx context.Context, id string) (GeneralQuestion, error) {
	var q GeneralQuestion
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, number, title, score FROM general_questions WHERE id=$1`, id).
		Scan(&q.ID, &q.ExamID, &q.Number, &q.Title, &q.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return GeneralQuestion{}, fmt.Errorf("general question %s: %w", id, assess.ErrNotFound)
	}
	return q, err
}

func (s *SQLStore) GeneralOption(ctx context.Context, id string) (GeneralOption, error) {
	var o GeneralOption
	var correct int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, title, is_correct FROM general_options WHERE id=$1`, id).
		Scan(&o.ID, &o.QuestionID, &o.Title, &correct)
	if errors.Is(err, sql.ErrNoRows) {
		return GeneralOption{}, fmt.Errorf("general option %s: %w", id, assess.ErrNotFound)
	}
	o.IsCorrect = correct != 0
	return o, err
}

func (s *SQLStore) PutGeneralExam(ctx context.Context, e GeneralExam) (GeneralExam, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Mode == assess.ModeEntrance && e.ProjectID == "" {
		return GeneralExam{}, assess.ErrProjectRequired
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO general_exams (id, title, time_budget_min, mode, project_id) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, time_budget_min=EXCLUDED.time_budget_min,
		 mode=EXCLUDED.mode, project_id=EXCLUDED.project_id`,
		e.ID, e.Title, e.TimeBudgetMin, string(e.Mode), e.ProjectID)
	if err != nil {
		return GeneralExam{}, fmt.Errorf("upsert general exam: %w", err)
	}
	return e, nil
}

// PutGeneralQuestion upserts a question and replaces its option set in
// one transaction, mirroring the create/update-question-with-options
// admin operation.
func (s *SQLStore) PutGeneralQuestion(ctx context.Context, q GeneralQuestion) (GeneralQuestion, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GeneralQuestion{}, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM general_exams WHERE id=$1`, q.ExamID).Scan(&exists); err != nil {
		return GeneralQuestion{}, err
	}
	if exists == 0 {
		return GeneralQuestion{}, fmt.Errorf("general exam %s: %w", q.ExamID, assess.ErrNotFound)
	}

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM general_questions WHERE exam_id=$1 AND number=$2`, q.ExamID, q.Number).Scan(&existing)
	if err == nil && existing != q.ID {
		return GeneralQuestion{}, fmt.Errorf("question number %d in exam %s: %w",
			q.Number, q.ExamID, assess.ErrDuplicateQuestionNumber)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return GeneralQuestion{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO general_questions (id, exam_id, number, title, score) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET exam_id=EXCLUDED.exam_id, number=EXCLUDED.number,
		 title=EXCLUDED.title, score=EXCLUDED.score`,
		q.ID, q.ExamID, q.Number, q.Title, q.Score); err != nil {
		return GeneralQuestion{}, fmt.Errorf("upsert general question: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM general_options WHERE question_id=$1`, q.ID); err != nil {
		return GeneralQuestion{}, err
	}
	for i := range q.Options {
		q.Options[i].ID = newID()
		q.Options[i].QuestionID = q.ID
		o := q.Options[i]
		correct := 0
		if o.IsCorrect {
			correct = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO general_options (id, question_id, title, is_correct) VALUES ($1,$2,$3,$4)`,
			o.ID, o.QuestionID, o.Title, correct); err != nil {
			return GeneralQuestion{}, err
		}
	}
	return q, tx.Commit()
}

func (s *SQLStore) DeleteGeneralQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM general_options WHERE question_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM general_questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("general question %s: %w", id, assess.ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLStore) DeleteGeneralExam(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM general_options WHERE question_id IN (SELECT id FROM general_questions WHERE exam_id=$1)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM general_questions WHERE exam_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM general_exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("general exam %s: %w", id, assess.ErrNotFound)
	}
	return tx.Commit()
}
