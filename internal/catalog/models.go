// Package catalog stores the admin-managed question banks for the
// three evaluation tracks. Rows are immutable as far as the scoring
// engines are concerned; only administrators mutate them.
package catalog

import (
	"context"

	"github.com/talentroute/assessment-engine/internal/assess"
)

type BelbinOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

type BelbinQuestion struct {
	ID      string         `json:"id"`
	Number  int            `json:"number"`
	Title   string         `json:"title"`
	Options []BelbinOption `json:"options,omitempty"`
}

type NeoOption struct {
	ID           string `json:"id"`
	QuestionID   string `json:"question_id"`
	OptionNumber int    `json:"option_number"`
	OptionLabel  string `json:"option_label"`
	OptionScore  int    `json:"option_score"`
}

type NeoQuestion struct {
	ID           string            `json:"id"`
	Number       int               `json:"number"`
	Title        string            `json:"title"`
	TraitType    assess.Trait      `json:"trait_type"`
	LikertLabels map[string]string `json:"likert_labels"` // "1".."5" -> label
	Options      []NeoOption       `json:"options,omitempty"`
}

type GeneralOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Title      string `json:"title"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
}

type GeneralQuestion struct {
	ID      string          `json:"id"`
	ExamID  string          `json:"exam_id"`
	Number  int             `json:"number"`
	Title   string          `json:"title"`
	Score   int             `json:"score"`
	Options []GeneralOption `json:"options,omitempty"`
}

type GeneralExam struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	TimeBudgetMin int               `json:"time_budget_min"`
	Mode          assess.ExamMode   `json:"mode"`
	ProjectID     string            `json:"project_id,omitempty"`
	Questions     []GeneralQuestion `json:"questions,omitempty"`
	QuestionCount int               `json:"question_count"`
}

// Direction of sequential question navigation.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
)

type Store interface {
	// Belbin
	BelbinQuestions(ctx context.Context) ([]BelbinQuestion, error)
	BelbinQuestion(ctx context.Context, id string) (BelbinQuestion, error)
	BelbinOption(ctx context.Context, id string) (BelbinOption, error)
	BelbinQuestionCount(ctx context.Context) (int, error)
	PutBelbinQuestion(ctx context.Context, q BelbinQuestion) (BelbinQuestion, error)
	DeleteBelbinQuestion(ctx context.Context, id string) error

	// Neo
	NeoQuestions(ctx context.Context) ([]NeoQuestion, error)
	NeoQuestion(ctx context.Context, id string) (NeoQuestion, error)
	NeoNeighbor(ctx context.Context, number int, dir Direction) (NeoQuestion, error)
	NeoOptionByNumber(ctx context.Context, questionID string, optionNumber int) (NeoOption, error)
	NeoQuestionCount(ctx context.Context) (int, error)
	PutNeoQuestion(ctx context.Context, q NeoQuestion) (NeoQuestion, error)
	DeleteNeoQuestion(ctx context.Context, id string) error
	RelabelNeoLikert(ctx context.Context, labels map[string]string) error

	// General
	GeneralExams(ctx context.Context, mode assess.ExamMode) ([]GeneralExam, error)
	GeneralExam(ctx context.Context, id string) (GeneralExam, error)
	GeneralQuestion(ctx context.Context, id string) (GeneralQuestion, error)
	GeneralOption(ctx context.Context, id string) (GeneralOption, error)
	PutGeneralExam(ctx context.Context, e GeneralExam) (GeneralExam, error)
	PutGeneralQuestion(ctx context.Context, q GeneralQuestion) (GeneralQuestion, error)
	DeleteGeneralQuestion(ctx context.Context, id string) error
	DeleteGeneralExam(ctx context.Context, id string) error
}
