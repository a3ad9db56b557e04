// Package general implements the timed multiple-choice exams. Each
// (user, exam) pair runs its own state machine: started, then finished
// or expired. Expiry is derived from the wall clock against the exam's
// time budget and persisted the first time it is observed; once a
// participant's time is up, no further answers are accepted for that
// exam.
package general

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talentroute/assessment-engine/internal/assess"
	"github.com/talentroute/assessment-engine/internal/catalog"
	"github.com/talentroute/assessment-engine/internal/progress"
)

type Catalog interface {
	GeneralExam(ctx context.Context, id string) (catalog.GeneralExam, error)
	GeneralQuestion(ctx context.Context, id string) (catalog.GeneralQuestion, error)
	GeneralOption(ctx context.Context, id string) (catalog.GeneralOption, error)
}

// ExamState is one exam's sub-state inside the general track.
// Timestamps are unix seconds, zero meaning unset.
type ExamState struct {
	Status     assess.Status     `json:"status"`
	StartedAt  int64             `json:"started_at"`
	ExpiredAt  int64             `json:"expired_at,omitempty"`
	FinishedAt int64             `json:"finished_at,omitempty"`
	Answers    map[string]string `json:"answers"` // question id -> option id
}

type state struct {
	Exams map[string]ExamState `json:"exams"`
}

// ExamView is ExamState plus the live remaining-time reading served to
// the participant while the exam is running.
type ExamView struct {
	ExamState
	ExamID           string `json:"exam_id"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	TotalScore       *int   `json:"total_score,omitempty"`
}

type Service struct {
	catalog  Catalog
	progress progress.Store
	now      func() time.Time
}

func NewService(c Catalog, p progress.Store) *Service {
	return &Service{catalog: c, progress: p, now: time.Now}
}

// RemainingSeconds floors at zero and is non-increasing in wall-clock
// time for fixed inputs.
func RemainingSeconds(startedAt int64, timeBudgetMin int, now time.Time) int64 {
	elapsed := now.Unix() - startedAt
	remaining := int64(timeBudgetMin)*60 - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func decodeState(raw json.RawMessage) (state, error) {
	var st state
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st); err != nil {
			return state{}, fmt.Errorf("decode general state: %w", err)
		}
	}
	if st.Exams == nil {
		st.Exams = map[string]ExamState{}
	}
	return st, nil
}

func encodeState(rec *progress.Record, st state) error {
	buf, err := json.Marshal(st)
	if err != nil {
		return err
	}
	rec.State = buf
	return nil
}

// Start registers the participant's start time for one exam. Invoking
// it again leaves the original start time untouched.
func (s *Service) Start(ctx context.Context, userID, examID string) (ExamView, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}

	var out ExamView
	_, err = s.progress.Update(ctx, userID, assess.TrackGeneral, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		es, ok := st.Exams[examID]
		if !ok {
			es = ExamState{
				Status:    assess.StatusStarted,
				StartedAt: s.now().Unix(),
				Answers:   map[string]string{},
			}
			st.Exams[examID] = es
			if rec.StartedAt == 0 {
				rec.StartedAt = es.StartedAt
			}
		}
		if err := encodeState(rec, st); err != nil {
			return err
		}
		out = s.view(examID, exam, es)
		return nil
	})
	if err != nil {
		return ExamView{}, err
	}
	return out, nil
}

func (s *Service) view(examID string, exam catalog.GeneralExam, es ExamState) ExamView {
	v := ExamView{ExamState: es, ExamID: examID}
	if es.Status == assess.StatusStarted {
		v.RemainingSeconds = RemainingSeconds(es.StartedAt, exam.TimeBudgetMin, s.now())
	}
	return v
}

// SubmitAnswer validates exam membership, option ownership and the
// time budget, in that order, then upserts the answer. A submission
// that finds the budget exhausted persists the expired status but
// still fails; the answer map is identical before and after the failed
// call.
func (s *Service) SubmitAnswer(ctx context.Context, userID, examID, questionID, optionID string) (ExamView, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}
	q, err := s.catalog.GeneralQuestion(ctx, questionID)
	if err != nil {
		return ExamView{}, err
	}
	if q.ExamID != examID {
		return ExamView{}, assess.ErrQuestionNotInExam
	}
	opt, err := s.catalog.GeneralOption(ctx, optionID)
	if err != nil {
		return ExamView{}, err
	}
	if opt.QuestionID != questionID {
		return ExamView{}, assess.ErrOptionMismatch
	}

	var out ExamView
	var submitErr error
	_, err = s.progress.Update(ctx, userID, assess.TrackGeneral, func(rec *progress.Record) error {
		submitErr = nil
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		es, ok := st.Exams[examID]
		if !ok {
			return assess.ErrExamNotStarted
		}
		switch es.Status {
		case assess.StatusExpired:
			return assess.ErrTimeExpired
		case assess.StatusFinished:
			return assess.ErrExamFinished
		}
		if RemainingSeconds(es.StartedAt, exam.TimeBudgetMin, s.now()) <= 0 {
			// Persist the transition observed here; the write still fails.
			es.Status = assess.StatusExpired
			es.ExpiredAt = s.now().Unix()
			st.Exams[examID] = es
			submitErr = assess.ErrTimeExpired
			return encodeState(rec, st)
		}
		if es.Answers == nil {
			es.Answers = map[string]string{}
		}
		es.Answers[questionID] = optionID
		st.Exams[examID] = es
		if err := encodeState(rec, st); err != nil {
			return err
		}
		out = s.view(examID, exam, es)
		return nil
	})
	if err != nil {
		return ExamView{}, err
	}
	if submitErr != nil {
		return ExamView{}, submitErr
	}
	return out, nil
}

// Finish ends one exam. Finishing an exam whose time already ran out
// reports the expiry instead.
func (s *Service) Finish(ctx context.Context, userID, examID string) (ExamView, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}
	var out ExamView
	var finishErr error
	_, err = s.progress.Update(ctx, userID, assess.TrackGeneral, func(rec *progress.Record) error {
		finishErr = nil
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		es, ok := st.Exams[examID]
		if !ok {
			return assess.ErrExamNotStarted
		}
		if es.Status == assess.StatusExpired {
			return assess.ErrTimeExpired
		}
		if es.Status == assess.StatusStarted {
			if RemainingSeconds(es.StartedAt, exam.TimeBudgetMin, s.now()) <= 0 {
				es.Status = assess.StatusExpired
				es.ExpiredAt = s.now().Unix()
				st.Exams[examID] = es
				finishErr = assess.ErrTimeExpired
				return encodeState(rec, st)
			}
			es.Status = assess.StatusFinished
			es.FinishedAt = s.now().Unix()
			st.Exams[examID] = es
		}
		if err := encodeState(rec, st); err != nil {
			return err
		}
		out = s.view(examID, exam, es)
		return nil
	})
	if err != nil {
		return ExamView{}, err
	}
	if finishErr != nil {
		return ExamView{}, finishErr
	}
	return out, nil
}

// Answers returns the participant's sub-state for one exam, with the
// score attached once the exam is finished. Observing an exhausted
// budget persists the expired transition.
func (s *Service) Answers(ctx context.Context, userID, examID string) (ExamView, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}
	es, err := s.examState(ctx, userID, examID, exam)
	if err != nil {
		return ExamView{}, err
	}
	out := s.view(examID, exam, es)
	if es.Status == assess.StatusFinished {
		score, err := s.scoreExam(ctx, exam, es)
		if err != nil {
			return ExamView{}, err
		}
		out.TotalScore = &score
	}
	return out, nil
}

// examState loads one exam's sub-state, persisting the expired
// transition when this read is the first to observe it.
func (s *Service) examState(ctx context.Context, userID, examID string, exam catalog.GeneralExam) (ExamState, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackGeneral)
	if err != nil {
		return ExamState{}, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return ExamState{}, err
	}
	es, ok := st.Exams[examID]
	if !ok {
		return ExamState{}, assess.ErrExamNotStarted
	}
	if es.Status == assess.StatusStarted &&
		RemainingSeconds(es.StartedAt, exam.TimeBudgetMin, s.now()) <= 0 {
		_, err = s.progress.Update(ctx, userID, assess.TrackGeneral, func(rec *progress.Record) error {
			st, err := decodeState(rec.State)
			if err != nil {
				return err
			}
			cur, ok := st.Exams[examID]
			if ok {
				if cur.Status == assess.StatusStarted {
					cur.Status = assess.StatusExpired
					cur.ExpiredAt = s.now().Unix()
					st.Exams[examID] = cur
				}
				es = cur
			}
			return encodeState(rec, st)
		})
		if err != nil {
			return ExamState{}, err
		}
	}
	return es, nil
}

// scoreExam sums the scores of questions whose stored answer is the
// correct option.
func (s *Service) scoreExam(ctx context.Context, exam catalog.GeneralExam, es ExamState) (int, error) {
	total := 0
	for questionID, optionID := range es.Answers {
		opt, err := s.catalog.GeneralOption(ctx, optionID)
		if err != nil {
			continue
		}
		if opt.QuestionID != questionID || !opt.IsCorrect {
			continue
		}
		q, err := s.catalog.GeneralQuestion(ctx, questionID)
		if err != nil {
			continue
		}
		if q.ExamID != exam.ID {
			continue
		}
		total += q.Score
	}
	return total, nil
}

// Score returns the exam score; only finished exams are scored.
func (s *Service) Score(ctx context.Context, userID, examID string) (int, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return 0, err
	}
	es, err := s.examState(ctx, userID, examID, exam)
	if err != nil {
		return 0, err
	}
	if es.Status != assess.StatusFinished {
		return 0, assess.ErrExamNotFinished
	}
	return s.scoreExam(ctx, exam, es)
}

// StatusInfo is the exam card shown before and during a run.
type StatusInfo struct {
	ExamID           string          `json:"exam_id"`
	Title            string          `json:"title"`
	Mode             assess.ExamMode `json:"mode"`
	TimeBudgetMin    int             `json:"time_budget_min"`
	QuestionCount    int             `json:"question_count"`
	Status           assess.Status   `json:"status,omitempty"`
	RemainingSeconds int64           `json:"remaining_seconds"`
}

// Status reports exam metadata together with the participant's state
// for it. Unlike Answers it does not fail when the exam was never
// started: Status is then empty.
func (s *Service) Status(ctx context.Context, userID, examID string) (StatusInfo, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return StatusInfo{}, err
	}
	info := StatusInfo{
		ExamID:        exam.ID,
		Title:         exam.Title,
		Mode:          exam.Mode,
		TimeBudgetMin: exam.TimeBudgetMin,
		QuestionCount: exam.QuestionCount,
	}
	es, err := s.examState(ctx, userID, examID, exam)
	if err != nil {
		if errors.Is(err, assess.ErrExamNotStarted) {
			return info, nil
		}
		return StatusInfo{}, err
	}
	info.Status = es.Status
	if es.Status == assess.StatusStarted {
		info.RemainingSeconds = RemainingSeconds(es.StartedAt, exam.TimeBudgetMin, s.now())
	}
	return info, nil
}

// Reset clears one exam's answers and reverts it to started. The start
// time is deliberately preserved: the time budget keeps counting from
// the original start.
func (s *Service) Reset(ctx context.Context, userID, examID string) (ExamView, error) {
	exam, err := s.catalog.GeneralExam(ctx, examID)
	if err != nil {
		return ExamView{}, err
	}
	var out ExamView
	_, err = s.progress.Update(ctx, userID, assess.TrackGeneral, func(rec *progress.Record) error {
		st, err := decodeState(rec.State)
		if err != nil {
			return err
		}
		es, ok := st.Exams[examID]
		if !ok {
			return assess.ErrExamNotStarted
		}
		es.Answers = map[string]string{}
		es.Status = assess.StatusStarted
		es.ExpiredAt = 0
		es.FinishedAt = 0
		st.Exams[examID] = es
		if err := encodeState(rec, st); err != nil {
			return err
		}
		out = s.view(examID, exam, es)
		return nil
	})
	if err != nil {
		return ExamView{}, err
	}
	return out, nil
}

// EnteredExam is a row of the participant's exam history.
type EnteredExam struct {
	ExamID string          `json:"exam_id"`
	Title  string          `json:"title"`
	Mode   assess.ExamMode `json:"mode"`
	Status assess.Status   `json:"status"`
}

// UserExams lists the exams the participant has started, skipping ones
// since removed from the catalog.
func (s *Service) UserExams(ctx context.Context, userID string) ([]EnteredExam, error) {
	rec, err := s.progress.GetOrCreate(ctx, userID, assess.TrackGeneral)
	if err != nil {
		return nil, err
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return nil, err
	}
	out := []EnteredExam{}
	for examID, es := range st.Exams {
		exam, err := s.catalog.GeneralExam(ctx, examID)
		if err != nil {
			continue
		}
		out = append(out, EnteredExam{ExamID: examID, Title: exam.Title, Mode: exam.Mode, Status: es.Status})
	}
	return out, nil
}
