// Package notification sends announcements and serves the feeds they appear in.
package notification

import (
	"encoding/json"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/gothwad/classesx/core"
)

type (
	Type   string
	Target string
)

const (
	TypeInfo   Type = "info"
	TypeAlert  Type = "alert"
	TypeUpdate Type = "update"

	TargetAll   Target = "all"
	TargetBatch Target = "batch"

	AllStudentsName = "All Students"

	InboxLimit  = 30
	OutboxLimit = 50
)

var (
	Types   = []string{string(TypeInfo), string(TypeAlert), string(TypeUpdate)}
	Targets = []string{string(TargetAll), string(TargetBatch)}
)

type Notification struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Type            Type      `json:"type"`
	SenderName      string    `json:"sender_name"`
	SenderUID       string    `json:"sender_uid"`
	TargetType      Target    `json:"target_type"`
	TargetBatchID   string    `json:"target_batch_id,omitempty"` // set iff TargetType is batch
	TargetBatchName string    `json:"target_batch_name"`
	Timestamp       time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts every timestamp shape parseTimestamp knows.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Timestamp json.RawMessage `json:"timestamp"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Timestamp = parseTimestamp(aux.Timestamp)
	return nil
}

// Compose is what an admin fills in to send a notification.
type Compose struct {
	Title         string `json:"title"`
	Message       string `json:"message"`
	Type          Type   `json:"type" validate:"omitempty,notiftype"`
	TargetType    Target `json:"target_type" validate:"omitempty,notiftarget"`
	TargetBatchID string `json:"target_batch_id"`
}

func (c *Compose) Validate(validate *validator.Validate) error {
	c.Title = core.CleanString(c.Title)
	c.Message = core.CleanString(c.Message)
	c.TargetBatchID = core.CleanString(c.TargetBatchID)
	if c.Type == "" {
		c.Type = TypeInfo
	}
	if c.TargetType == "" {
		c.TargetType = TargetAll
	}

	if c.Title == "" || c.Message == "" {
		var flds []core.FieldError
		if c.Title == "" {
			flds = append(flds, core.FieldError{Field: "title", Error: "Title is required."})
		}
		if c.Message == "" {
			flds = append(flds, core.FieldError{Field: "message", Error: "Message is required."})
		}
		return core.NewValidationError(nil, flds...)
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.TargetType {
	case TargetBatch:
		if c.TargetBatchID == "" {
			return core.NewFieldError("target_batch_id", "Please select a target batch.")
		}
	case TargetAll:
		c.TargetBatchID = ""
	}
	return nil
}

// InitValidators registers the notification validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOf(validate, translator, "notiftype", "invalid notification type", Types...)
	core.RegisterOneOf(validate, translator, "notiftarget", "invalid notification target", Targets...)
}
