// Package belbin implements the forced-distribution team-role
// inventory: every question carries a 10-point budget the participant
// spreads across its options.
package belbin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/progress"
)

// Catalog is the slice of the question bank this track reads.
type Catalog interface {
	BelbinQuestions(ctx context.Context) ([]catalog.BelbinQuestion, error)
	BelbinQuestion(ctx context.Context, id string) (catalog.BelbinQuestion, error)
	BelbinOption(ctx context.Context, id string) (catalog.BelbinOption, error)
	BelbinQuestionCount(ctx context.Context) (int, error)
}

// Answers maps question id -> option id -> score.
type Answers map[string]map[string]int

type state struct {
	Answers Answers `json:"answers"`
}

// SubState is the full track view returned to the participant after
// every read or write.
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
			return state{}, fmt.Errorf("decode belbin state: %w", err)
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

// SubmitAnswer records score for one option of one question. The sum
// of scores across the question's options may never exceed the budget;
// resubmitting an option replaces its previous score before the sum is
// checked. The stored state is untouched when validation fails.
func (s *Service) SubmitAnswer(ctx context.Context, userID, questionID, optionID string, score int) (SubState, error) {
	if score < 0 || score > assess.MaxBelbinScore {
		return SubState{}, assess.ErrInvalidScore
	}
	if _, err := s.catalog.BelbinQuestion(ctx, questionID); err != nil {
		return SubState{}, err
	}
	opt, err := s.catalog.BelbinOption(ctx, optionID)
	if err != nil {
		return SubState{}, err
	}
	if opt.QuestionID != questionID {
		return SubState{}, assess.ErrOptionMismatch
	}

	var out SubState
	_, err = s.progress.Update(ctx, userID, assess.TrackBelbin, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		sum := 0
		for oid, sc := range st.Answers[questionID] {
			if oid != optionID {
				sum += sc
			}
		}
		if sum+score > assess.MaxBelbinScore {
			return assess.ErrScoreSumExceeded
		}
		if st.Answers[questionID] == nil {
			st.Answers[questionID] = map[string]int{}
		}
		st.Answers[questionID][optionID] = score
		if rec.StartedAt == 0 {
			rec.StartedAt = s.now().Unix()
		}

		// A submission that completes the inventory flips the track to
		// finished without a separate call.
		if rec.Status != assess.StatusFinished {
			done, err := s.complete(ctx, st)
			if err != nil {
				return err
			}
			if done {
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

// complete reports whether every catalog question has its full budget
// distributed.
func (s *Service) complete(ctx context.Context, st state) (bool, error) {
	questions, err := s.catalog.BelbinQuestions(ctx)
	if err != nil {
		return false, err
	}
	if len(questions) == 0 {
		return false, nil
	}
	for _, q := range questions {
		sum := 0
		for _, sc := range st.Answers[q.ID] {
			sum += sc
		}
		if sum != assess.MaxBelbinScore {
			return false, nil
		}
	}
	return true, nil
}

// NextQuestion returns the lowest-numbered question the participant
// has not answered yet.
func (s *Service) NextQuestion(ctx context.Context, userID string) (catalog.BelbinQuestion, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackBelbin)
	if err != nil {
		return catalog.BelbinQuestion{}, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return catalog.BelbinQuestion{}, err
	}
	questions, err := s.catalog.BelbinQuestions(ctx)
	if err != nil {
		return catalog.BelbinQuestion{}, err
	}
	for _, q := range questions {
		if _, answered := st.Answers[q.ID]; !answered {
			return q, nil
		}
	}
	return catalog.BelbinQuestion{}, assess.ErrNoMoreQuestions
}

// Finish is the explicit end-of-track transition. It refuses while any
// question is missing its full distribution.
func (s *Service) Finish(ctx context.Context, userID string) (SubState, error) {
	var out SubState
	_, err := s.progress.Update(ctx, userID, assess.TrackBelbin, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		done, err := s.complete(ctx, st)
		if err != nil {
			return err
		}
		if !done {
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

// Answers returns the current sub-state, creating the default record on
// first contact.
func (s *Service) Answers(ctx context.Context, userID string) (SubState, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackBelbin)
	if err != nil {
		return SubState{}, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return SubState{}, err
	}
	return subState(rec, st), nil
}

// Reset clears the track's answers and reverts it to started.
func (s *Service) Reset(ctx context.Context, userID string) (SubState, error) {
	var out SubState
	_, err := s.progress.Update(ctx, userID, assess.TrackBelbin, func(rec *progress.Record) error {
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

// Stats is the admin dashboard summary.
type Stats struct {
	FinishedUsers int `json:"finished_users"`
	QuestionCount int `json:"question_count"`
}

func (s *Service) FinishedStats(ctx context.Context) (Stats, error) {
	finished, err := s.progress.CountFinished(ctx, assess.TrackBelbin)
	if err != nil {
		return Stats{}, err
	}
	count, err := s.catalog.BelbinQuestionCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{FinishedUsers: finished, QuestionCount: count}, nil
}
