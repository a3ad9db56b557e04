package assess

import "errors"

// Validation failures surfaced synchronously to the caller. None of
// these trigger retries or background compensation; the HTTP layer
// maps them to structured error responses.
var (
	ErrNotFound                = errors.New("not found")
	ErrScoreSumExceeded        = errors.New("question score sum exceeds the budget")
	ErrInvalidScore            = errors.New("score must be between 0 and 10")
	ErrInvalidLikertKey        = errors.New("likert key is not one of the configured options")
	ErrOptionMismatch          = errors.New("option does not belong to the question")
	ErrQuestionNotInExam       = errors.New("question does not belong to the exam")
	ErrTimeExpired             = errors.New("exam time budget has expired")
	ErrExamNotStarted          = errors.New("exam has not been started")
	ErrExamFinished            = errors.New("exam has already been finished")
	ErrExamNotFinished         = errors.New("exam has not been finished")
	ErrNoMoreQuestions         = errors.New("no more questions")
	ErrNotAnswered             = errors.New("question has not been answered")
	ErrTrackIncomplete         = errors.New("track has unanswered questions")
	ErrDuplicateQuestionNumber = errors.New("question number already in use")
	ErrProjectRequired         = errors.New("entrance exams require a project")
	ErrInvalidTrait            = errors.New("unknown trait type")
	ErrNotYetCompleted         = errors.New("participant has not completed this track")
	ErrResultNotFound          = errors.New("no result stored")
	ErrPrerequisiteNotMet      = errors.New("resume must be completed first")

	// ErrConflict is returned when the progress store exhausts its
	// optimistic-lock retries. Transient: the caller may repeat the
	// request.
	ErrConflict = errors.New("concurrent update conflict")
)
