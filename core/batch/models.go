package batch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gothwad/classesx/core"
)

type Batch struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ClassLevel     string    `json:"class_level"`
	Instructor     string    `json:"instructor"`
	Subjects       []string  `json:"subjects"`
	StudentIDs     []string  `json:"student_ids"`
	ThumbnailColor string    `json:"thumbnail_color,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

func (b Batch) HasStudent(uid string) bool {
	return uid != "" && core.ContainsString(b.StudentIDs, uid)
}

func (b Batch) HasSubject(subject string) bool {
	return core.ContainsString(b.Subjects, subject)
}

// NewBatch contains information needed to create a new Batch.
type NewBatch struct {
	Name           string   `json:"name" validate:"required"`
	ClassLevel     string   `json:"class_level" validate:"required,classlevel"`
	Instructor     string   `json:"instructor" validate:"required"`
	Subjects       []string `json:"subjects" validate:"required,min=1,dive,required"`
	ThumbnailColor string   `json:"thumbnail_color" validate:"omitempty,hexcolor"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Instructor = core.CleanString(nb.Instructor)
	nb.ThumbnailColor = core.CleanString(nb.ThumbnailColor, true /* lower */)
	subjects := make([]string, 0, len(nb.Subjects))
	for _, s := range nb.Subjects {
		subjects = core.AppendUnique(subjects, core.CleanString(s))
	}
	nb.Subjects = subjects
	return validate.Struct(nb)
}

// NewStudent is what an admin provides to register a student straight into a batch.
type NewStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	BatchID  string `json:"batch_id"`
}

// EditStudent changes a student's details and optionally moves them to another batch.
type EditStudent struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	FromBatchID string `json:"from_batch_id"`
	ToBatchID   string `json:"to_batch_id"`
}

type QueryFilter struct {
	MemberID string // empty: every batch
	// Search keeps the batches whose name starts with it, ignoring case. Matches are ordered by name.
	Search string
	Limit  int // 0: no limit
}
