// Package neo implements the Likert personality inventory: one answer
// per question on a five-level scale, scored per trait dimension.
package neo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/progress"
)

type Catalog interface {
	NeoQuestions(ctx context.Context) ([]catalog.NeoQuestion, error)
	NeoQuestion(ctx context.Context, id string) (catalog.NeoQuestion, error)
	NeoNeighbor(ctx context.Context, number int, dir catalog.Direction) (catalog.NeoQuestion, error)
	NeoOptionByNumber(ctx context.Context, questionID string, optionNumber int) (catalog.NeoOption, error)
	NeoQuestionCount(ctx context.Context) (int, error)
}

// Answers maps question id -> submitted likert key ("1".."5").
type Answers map[string]string

type state struct {
	Answers Answers `json:"answers"`
}

type SubState struct {
	Status     assess.Status `json:"status"`
	StartedAt  int64         `json:"started_at,omitempty"`
	FinishedAt int64         `json:"finished_at,omitempty"`
	Answers    Answers       `json:"answers"`
}

type Service struct {
	catalog  Catalog
	progress progress.Store
	now      func() time.Time
}

func NewService(c Catalog, p progress.Store) *Service {
	return &Service{catalog: c, progress: p, now: time.Now}
}

func decodeState(raw json.RawMessage) (state, error) {
	var st state
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil {
			return state{}, fmt.Errorf("decode neo state: %w", err)
		}
	}
	if st.Answers == nil {
		st.Answers = Answers{}
	}
	return st, nil
}

func subState(rec progress.Record, st state) SubState {
	return SubState{
		Status:     rec.Status,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Answers:    st.Answers,
	}
}

// SubmitAnswer records the likert key for one question. Resubmission
// overwrites; there is exactly one stored answer per question.
func (s *Service) SubmitAnswer(ctx context.Context, userID, questionID, likertKey string) (SubState, error) {
	q, err := s.catalog.NeoQuestion(ctx, questionID)
	if err != nil {
		return SubState{}, err
	}
	if _, ok := q.LikertLabels[likertKey]; !ok {
		return SubState{}, assess.ErrInvalidLikertKey
	}

	var out SubState
	_, err = s.progress.Update(ctx, userID, assess.TrackNeo, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		st.Answers[questionID] = likertKey
		if rec.StartedAt == 0 {
			rec.StartedAt = s.now().Unix()
		}
		if rec.Status != assess.StatusFinished {
			total, err := s.catalog.NeoQuestionCount(ctx)
			if err != nil {
				return err
			}
			if total > 0 && len(st.Answers) >= total {
				rec.Status = assess.StatusFinished
				rec.FinishedAt = s.now().Unix()
			}
		}
		buf, err := json.Marshal(st)
		if err != nil {
			return err
		}
		rec.State = buf
		out = subState(*rec, st)
		return nil
	})
	if err != nil {
		return SubState{}, err
	}
	return out, nil
}

// Navigate returns the question adjacent to questionID in number
// order, or ErrNoMoreQuestions past either boundary.
func (s *Service) Navigate(ctx context.Context, questionID string, dir catalog.Direction) (catalog.NeoQuestion, error) {
	q, err := s.catalog.NeoQuestion(ctx, questionID)
	if err != nil {
		return catalog.NeoQuestion{}, err
	}
	return s.catalog.NeoNeighbor(ctx, q.Number, dir)
}

// NextQuestion returns the lowest-numbered unanswered question.
func (s *Service) NextQuestion(ctx context.Context, userID string) (catalog.NeoQuestion, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackNeo)
	if err != nil {
		return catalog.NeoQuestion{}, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return catalog.NeoQuestion{}, err
	}
	questions, err := s.catalog.NeoQuestions(ctx)
	if err != nil {
		return catalog.NeoQuestion{}, err
	}
	for _, q := range questions {
		if _, answered := st.Answers[q.ID]; !answered {
			return q, nil
		}
	}
	return catalog.NeoQuestion{}, assess.ErrNoMoreQuestions
}

// Score aggregates option scores per trait for everything the user has
// answered. Pure read: it mutates nothing and may be called at any
// point of the track.
func (s *Service) Score(ctx context.Context, userID string) (map[assess.Trait]int, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackNeo)
	if err != nil {
		return nil, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.NeoQuestions(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[assess.Trait]int, len(assess.Traits))
	for _, t := range assess.Traits {
		result[t] = 0
	}
	for _, q := range questions {
		key, ok := st.Answers[q.ID]
		if !ok {
			continue
		}
		num, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		opt, err := s.catalog.NeoOptionByNumber(ctx, q.ID, num)
		if err != nil {
			// Unscored question: no option row matches the key.
			continue
		}
		result[q.TraitType] += opt.OptionScore
	}
	return result, nil
}

// AnswerForQuestion is a point lookup of one stored answer.
func (s *Service) AnswerForQuestion(ctx context.Context, userID, questionID string) (string, error) {
	if _, err := s.catalog.NeoQuestion(ctx, questionID); err != nil {
		return "", err
	}
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackNeo)
	if err != nil {
		return "", err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return "", err
	}
	key, ok := st.Answers[questionID]
	if !ok {
		return "", assess.ErrNotAnswered
	}
	return key, nil
}

// Finish is the explicit end-of-track transition; it requires an
// answer for every catalog question.
func (s *Service) Finish(ctx context.Context, userID string) (SubState, error) {
	var out SubState
	_, err := s.progress.Update(ctx, userID, assess.TrackNeo, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		total, err := s.catalog.NeoQuestionCount(ctx)
		if err != nil {
			return err
		}
		if total == 0 || len(st.Answers) < total {
			return assess.ErrTrackIncomplete
		}
		if rec.Status != assess.StatusFinished {
			rec.Status = assess.StatusFinished
			rec.FinishedAt = s.now().Unix()
		}
		out = subState(*rec, st)
		return nil
	})
	if err != nil {
		return SubState{}, err
	}
	return out, nil
}

func (s *Service) Answers(ctx context.Context, userID string) (SubState, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackNeo)
	if err != nil {
		return SubState{}, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return SubState{}, err
	}
	return subState(rec, st), nil
}

func (s *Service) Reset(ctx context.Context, userID string) (SubState, error) {
	var out SubState
	_, err := s.progress.Update(ctx, userID, assess.TrackNeo, func(rec *progress.Record) error {
		st := state{Answers: Answers{}}
		buf, err := json.Marshal(st)
		if err != nil {
			return err
		}
		rec.State = buf
		rec.Status = assess.StatusStarted
		rec.StartedAt = 0
		rec.FinishedAt = 0
		out = subState(*rec, st)
		return nil
	})
	if err != nil {
		return SubState{}, err
	}
	return out, nil
}

type Stats struct {
	FinishedUsers int `json:"finished_users"`
	QuestionCount int `json:"question_count"`
}

func (s *Service) FinishedStats(ctx context.Context) (Stats, error) {
	finished, err := s.progress.CountFinished(ctx, assess.TrackNeo)
	if err != nil {
		return Stats{}, err
	}
	count, err := s.catalog.NeoQuestionCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{FinishedUsers: finished, QuestionCount: count}, nil
}
