// Package records exposes the fee and attendance records of students. Records are read only through the app.
package records

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

var ErrNotFound = errors.New("record not found")

type Payment struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Method string  `json:"method"`
}

type FeeRecord struct {
	UserID  string    `json:"user_id"`
	Total   float64   `json:"total"`
	Paid    float64   `json:"paid"`
	History []Payment `json:"history"`
}

// Due is what remains to be paid. Overpayments are not refunded.
func (f FeeRecord) Due() float64 {
	if due := f.Total - f.Paid; due > 0 {
		return due
	}
	return 0
}

type AttendanceRecord struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Status Status `json:"status"`
}

// Summary counts attendance by status.
type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

func (s Summary) Total() int { return s.Present + s.Absent + s.Late }

// Rate is the share of days attended, late days included, as a percentage.
func (s Summary) Rate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Present+s.Late) * 100 / float64(s.Total())
}

func Summarize(recs []AttendanceRecord) Summary {
	var s Summary
	for _, r := range recs {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLate:
			s.Late++
		}
	}
	return s
}

type (
	Repository interface {
		// GetFeeRecord returns ErrNotFound when the user has no fee record.
		GetFeeRecord(ctx context.Context, uid string) (FeeRecord, error)
		// QueryAttendance returns the attendance of a user, latest date first.
		QueryAttendance(ctx context.Context, uid string) ([]AttendanceRecord, error)
	}

	// Store also writes records. Records are written by operators, never through the API.
	Store interface {
		Repository
		PutFeeRecord(ctx context.Context, rec FeeRecord) error
		// AddAttendance replaces an earlier record of the same user and date.
		AddAttendance(ctx context.Context, recs ...AttendanceRecord) error
	}

	Service interface {
		Fees(ctx context.Context, actor user.User, uid string) (FeeRecord, error)
		Attendance(ctx context.Context, actor user.User, uid string) ([]AttendanceRecord, Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Fees returns the fee record of uid. A user without record owes nothing.
func (svc *service) Fees(ctx context.Context, actor user.User, uid string) (FeeRecord, error) {
	if !actor.Follows(uid) {
		return FeeRecord{}, core.ErrForbidden
	}
	rec, err := svc.repo.GetFeeRecord(ctx, uid)
	if errors.Cause(err) == ErrNotFound {
		return FeeRecord{UserID: uid, History: []Payment{}}, nil
	}
	return rec, err
}

func (svc *service) Attendance(ctx context.Context, actor user.User, uid string) ([]AttendanceRecord, Summary, error) {
	if !actor.Follows(uid) {
		return nil, Summary{}, core.ErrForbidden
	}
	recs, err := svc.repo.QueryAttendance(ctx, uid)
	if err != nil {
		return nil, Summary{}, err
	}
	return recs, Summarize(recs), nil
}
