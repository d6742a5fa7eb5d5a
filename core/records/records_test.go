package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

type repoStub struct {
	fees       map[string]FeeRecord
	attendance map[string][]AttendanceRecord
}

func (r repoStub) GetFeeRecord(_ context.Context, uid string) (FeeRecord, error) {
	rec, ok := r.fees[uid]
	if !ok {
		return FeeRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r repoStub) QueryAttendance(_ context.Context, uid string) ([]AttendanceRecord, error) {
	return r.attendance[uid], nil
}

func TestFeeRecord_Due(t *testing.T) {
	assert.Equal(t, 2000.0, FeeRecord{Total: 5000, Paid: 3000}.Due())
	assert.Equal(t, 0.0, FeeRecord{Total: 5000, Paid: 6000}.Due())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]AttendanceRecord{
		{Status: StatusPresent}, {Status: StatusPresent}, {Status: StatusLate}, {Status: StatusAbsent},
	})
	assert.Equal(t, Summary{Present: 2, Absent: 1, Late: 1}, s)
	assert.Equal(t, 4, s.Total())
	assert.Equal(t, 75.0, s.Rate())
	assert.Equal(t, 0.0, Summary{}.Rate())
}

func TestService_Access(t *testing.T) {
	svc := NewService(repoStub{
		fees: map[string]FeeRecord{"s1": {UserID: "s1", Total: 100, Paid: 40}},
		attendance: map[string][]AttendanceRecord{
			"s1": {{UserID: "s1", Date: "2024-03-01", Status: StatusPresent}},
		},
	})
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   user.User
		wantErr error
	}{
		{"self", user.User{ID: "s1", Role: user.RoleStudent}, nil},
		{"admin", user.User{ID: "a1", Role: user.RoleAdmin}, nil},
		{"linked parent", user.User{ID: "p1", Role: user.RoleParent, StudentID: "s1"}, nil},
		{"other parent", user.User{ID: "p2", Role: user.RoleParent, StudentID: "s2"}, core.ErrForbidden},
		{"other student", user.User{ID: "s2", Role: user.RoleStudent}, core.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fees, err := svc.Fees(ctx, tt.actor, "s1")
			_, sum, err2 := svc.Attendance(ctx, tt.actor, "s1")
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Equal(t, tt.wantErr, err2)
				return
			}
			require.NoError(t, err)
			require.NoError(t, err2)
			assert.Equal(t, 60.0, fees.Due())
			assert.Equal(t, 1, sum.Present)
		})
	}
}

func TestService_FeesWithoutRecord(t *testing.T) {
	svc := NewService(repoStub{})
	rec, err := svc.Fees(context.Background(), user.User{ID: "s9", Role: user.RoleStudent}, "s9")
	require.NoError(t, err)
	assert.Equal(t, "s9", rec.UserID)
	assert.Empty(t, rec.History)
	assert.Equal(t, 0.0, rec.Due())
}
