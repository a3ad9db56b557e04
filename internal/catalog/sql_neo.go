package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talentroute/assessment-engine/internal/assess"
)

func (s *SQLStore) NeoQuestions(ctx context.Context) ([]NeoQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, title, trait_type, likert_labels_json FROM neo_questions ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list neo questions: %w", err)
	}
	defer rows.Close()

	var qs []NeoQuestion
	for rows.Next() {
		q, err := scanNeoQuestion(rows)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNeoQuestion(r rowScanner) (NeoQuestion, error) {
	var q NeoQuestion
	var labels string
	if err := r.Scan(&q.ID, &q.Number, &q.Title, &q.TraitType, &labels); err != nil {
		return NeoQuestion{}, err
	}
	if err := json.Unmarshal([]byte(labels), &q.LikertLabels); err != nil {
		return NeoQuestion{}, fmt.Errorf("decode likert labels for %s: %w", q.ID, err)
	}
	return q, nil
}

func (s *SQLStore) NeoQuestion(ctx context.Context, id string) (NeoQuestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, number, title, trait_type, likert_labels_json FROM neo_questions WHERE id=$1`, id)
	q, err := scanNeoQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return NeoQuestion{}, fmt.Errorf("neo question %s: %w", id, assess.ErrNotFound)
	}
	if err != nil {
		return NeoQuestion{}, err
	}
	q.Options, err = s.neoOptions(ctx, q.ID)
	return q, err
}

// NeoNeighbor returns the adjacent question by number, or ErrNoMoreQuestions
// past either boundary.
func (s *SQLStore) NeoNeighbor(ctx context.Context, number int, dir Direction) (NeoQuestion, error) {
	var query string
	switch dir {
	case Next:
		query = `SELECT id, number, title, trait_type, likert_labels_json FROM neo_questions
			WHERE number > $1 ORDER BY number ASC LIMIT 1`
	case Previous:
		query = `SELECT id, number, title, trait_type, likert_labels_json FROM neo_questions
			WHERE number < $1 ORDER BY number DESC LIMIT 1`
	default:
		return NeoQuestion{}, fmt.Errorf("direction %q: %w", dir, assess.ErrNotFound)
	}
	q, err := scanNeoQuestion(s.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return NeoQuestion{}, assess.ErrNoMoreQuestions
	}
	return q, err
}

func (s *SQLStore) neoOptions(ctx context.Context, questionID string) ([]NeoOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, option_number, option_label, option_score
		 FROM neo_options WHERE question_id=$1 ORDER BY option_number`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []NeoOption
	for rows.Next() {
		var o NeoOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.OptionNumber, &o.OptionLabel, &o.OptionScore); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// NeoOptionByNumber resolves the scoring option matched by a submitted
// likert key. Used only by trait scoring, never shown to participants.
func (s *SQLStore) NeoOptionByNumber(ctx context.Context, questionID string, optionNumber int) (NeoOption, error) {
	var o NeoOption
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, option_number, option_label, option_score
		 FROM neo_options WHERE question_id=$1 AND option_number=$2`, questionID, optionNumber).
		Scan(&o.ID, &o.QuestionID, &o.OptionNumber, &o.OptionLabel, &o.OptionScore)
	if errors.Is(err, sql.ErrNoRows) {
		return NeoOption{}, fmt.Errorf("neo option %d of question %s: %w", optionNumber, questionID, assess.ErrNotFound)
	}
	return o, err
}

func (s *SQLStore) NeoQuestionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM neo_questions`).Scan(&n)
	return n, err
}

func (s *SQLStore) PutNeoQuestion(ctx context.Context, q NeoQuestion) (NeoQuestion, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	if !q.TraitType.Valid() {
		return NeoQuestion{}, fmt.Errorf("trait %q: %w", q.TraitType, assess.ErrInvalidTrait)
	}
	if q.LikertLabels == nil {
		q.LikertLabels = DefaultLikertLabels()
	}
	labels, err := json.Marshal(q.LikertLabels)
	if err != nil {
		return NeoQuestion{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NeoQuestion{}, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM neo_questions WHERE number=$1`, q.Number).Scan(&existing)
	if err == nil && existing != q.ID {
		return NeoQuestion{}, fmt.Errorf("neo question number %d: %w", q.Number, assess.ErrDuplicateQuestionNumber)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NeoQuestion{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO neo_questions (id, number, title, trait_type, likert_labels_json) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET number=EXCLUDED.number, title=EXCLUDED.title,
		 trait_type=EXCLUDED.trait_type, likert_labels_json=EXCLUDED.likert_labels_json`,
		q.ID, q.Number, q.Title, string(q.TraitType), string(labels)); err != nil {
		return NeoQuestion{}, fmt.Errorf("upsert neo question: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM neo_options WHERE question_id=$1`, q.ID); err != nil {
		return NeoQuestion{}, err
	}
	for i := range q.Options {
		q.Options[i].ID = newID()
		q.Options[i].QuestionID = q.ID
		o := q.Options[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO neo_options (id, question_id, option_number, option_label, option_score) VALUES ($1,$2,$3,$4,$5)`,
			o.ID, o.QuestionID, o.OptionNumber, o.OptionLabel, o.OptionScore); err != nil {
			return NeoQuestion{}, err
		}
	}
	return q, tx.Commit()
}

func (s *SQLStore) DeleteNeoQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM neo_options WHERE question_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM neo_questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("neo question %s: %w", id, assess.ErrNotFound)
	}
	return tx.Commit()
}

// RelabelNeoLikert rewrites the likert label map on every Neo question
// at once. Keys not present in labels keep their current value.
func (s *SQLStore) RelabelNeoLikert(ctx context.Context, labels map[string]string) error {
	qs, err := s.NeoQuestions(ctx)
	if err != nil {
		return err
	}
	if len(qs) == 0 {
		return fmt.Errorf("neo catalog is empty: %w", assess.ErrNotFound)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range qs {
		for k, v := range labels {
			q.LikertLabels[k] = v
		}
		buf, err := json.Marshal(q.LikertLabels)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE neo_questions SET likert_labels_json=$1 WHERE id=$2`, string(buf), q.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DefaultLikertLabels is the five-level agree/disagree scale new Neo
// questions start with.
func DefaultLikertLabels() map[string]string {
	return map[string]string{
		"1": "strongly agree",
		"2": "agree",
		"3": "neutral",
		"4": "disagree",
		"5": "strongly disagree",
	}
}
