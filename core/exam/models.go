// Package exam manages the tests batches sit.
package exam

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gothwad/classesx/core"
)

const (
	MarksPerQuestion = 4
	OptionsCount     = 4
	DefaultDuration  = 60 // minutes
	AllBatchesName   = "All Batches"
)

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option,omitempty"` // hidden from students
}

type Test struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Date       string     `json:"date"` // YYYY-MM-DD
	BatchID    string     `json:"batch_id"`
	BatchName  string     `json:"batch_name"`
	Duration   int        `json:"duration"` // minutes
	Questions  []Question `json:"questions"`
	TotalMarks int        `json:"total_marks"`
	CreatedAt  time.Time  `json:"created_at"` // UTC
}

// TotalMarksFor is the score of a test with n questions.
func TotalMarksFor(n int) int {
	return n * MarksPerQuestion
}

// Redacted returns a copy of t without the answers.
func (t Test) Redacted() Test {
	qs := make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.CorrectOption = nil
		qs[i] = q
	}
	t.Questions = qs
	return t
}

// IsFor reports whether the test is visible to members of the given batches.
func (t Test) IsFor(batchIDs []string) bool {
	return t.BatchID == core.AllBatches || core.ContainsString(batchIDs, t.BatchID)
}

// NewTest contains information needed to create a new Test.
type NewTest struct {
	Title    string `json:"title" validate:"required"`
	Date     string `json:"date" validate:"required,isodate"`
	Duration int    `json:"duration" validate:"omitempty,min=1,max=600"`
	BatchID  string `json:"batch_id"`
}

func (nt *NewTest) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Date = core.CleanString(nt.Date)
	nt.BatchID = core.CleanString(nt.BatchID)
	if nt.BatchID == "" {
		nt.BatchID = core.AllBatches
	}
	if nt.Duration == 0 {
		nt.Duration = DefaultDuration
	}
	return validate.Struct(nt)
}

// NewQuestion contains information needed to append a Question to a Test.
type NewQuestion struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectOption int      `json:"correct_option" validate:"min=0,max=3"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
	return validate.Struct(nq)
}

type QueryFilter struct {
	BatchIDs []string // nil: every test
}
