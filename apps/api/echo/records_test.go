package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	echoapi "github.com/gothwad/classesx/apps/api/echo"
	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func Test_recordsApi(t *testing.T) {
	ctx := context.Background()
	srv, env := newTestApp(t, nil)
	asha := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	ravi := testutil.CreateUser(t, env.UserRepo, "Ravi", "stu-2@student.classesx.com", pwd, user.RoleStudent, true)
	parent := testutil.CreateUser(t, env.UserRepo, "Mrs. Iyer", "par-1@parent.classesx.com", pwd, user.RoleParent, true)
	parent.StudentID = asha.ID
	parent, err := env.UserRepo.UpdateUser(ctx, parent)
	require.NoError(t, err)

	fee := records.FeeRecord{
		UserID:  asha.ID,
		Total:   50000,
		Paid:    20000,
		History: []records.Payment{{Amount: 20000, Date: "2026-06-01", Method: "UPI"}},
	}
	require.NoError(t, env.RecordStore.PutFeeRecord(ctx, fee))
	present := records.AttendanceRecord{UserID: asha.ID, Date: "2026-10-02", Status: records.StatusPresent}
	absent := records.AttendanceRecord{UserID: asha.ID, Date: "2026-10-01", Status: records.StatusAbsent}
	require.NoError(t, env.RecordStore.AddAttendance(ctx, absent, present))

	fees := "/v1/users/" + asha.ID + "/fees"
	attendance := "/v1/users/" + asha.ID + "/attendance"
	wantFees := marchallObj(t, echoapi.FeesResponse{FeeRecord: fee, Due: 30000})
	wantAttendance := marchallObj(t, echoapi.AttendanceResponse{
		Records: []records.AttendanceRecord{present, absent},
		Summary: records.Summary{Present: 1, Absent: 1},
		Rate:    50,
	})

	runHTTPTests(t, srv, []httpTest{
		{name: "own fees", path: fees, token: getToken(t, asha), wantCode: http.StatusOK, wantData: wantFees},
		{name: "child fees", path: fees, token: getToken(t, parent), wantCode: http.StatusOK, wantData: wantFees},
		{name: "someone else's fees", path: fees, token: getToken(t, ravi), wantCode: http.StatusForbidden},
		{name: "own attendance", path: attendance, token: getToken(t, asha), wantCode: http.StatusOK, wantData: wantAttendance},
		{name: "child attendance", path: attendance, token: getToken(t, parent), wantCode: http.StatusOK, wantData: wantAttendance},
		{
			name: "no records yet", path: "/v1/users/" + ravi.ID + "/attendance", token: getToken(t, ravi), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.AttendanceResponse{Records: []records.AttendanceRecord{}}),
		},
		{
			name: "nothing owed yet", path: "/v1/users/" + ravi.ID + "/fees", token: getToken(t, ravi), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.FeesResponse{FeeRecord: records.FeeRecord{UserID: ravi.ID, History: []records.Payment{}}}),
		},
	})
}
