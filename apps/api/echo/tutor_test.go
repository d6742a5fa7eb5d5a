package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/tutor"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func Test_tutorApi(t *testing.T) {
	answer := tutor.ModelFunc(func(_ context.Context, _, prompt string) (string, error) {
		return "**Newton**: " + prompt, nil
	})
	offline := tutor.ModelFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("dial tcp: no route to host")
	})

	for _, tc := range []struct {
		model tutor.Model
		tt    httpTest
	}{
		{
			model: answer,
			tt: httpTest{
				name: "answer", body: []byte(`{"message":" What is inertia? "}`),
				wantCode: http.StatusOK, wantData: []byte(`{"reply":"**Newton**: What is inertia?"}`),
			},
		},
		{
			model: answer,
			tt: httpTest{
				name: "empty question", body: []byte(`{"message":"   "}`),
				wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: tutor.ErrEmptyQuestion.Error()}),
			},
		},
		{
			model: offline,
			tt: httpTest{
				name: "model unreachable", body: []byte(`{"message":"Why?"}`),
				wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, httpErr{Error: tutor.ConnectionError}),
			},
		},
	} {
		t.Run(tc.tt.name, func(t *testing.T) {
			srv, env := newTestApp(t, tc.model)
			asha := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)

			tt := tc.tt
			tt.method, tt.path, tt.token = http.MethodPost, "/v1/tutor", getToken(t, asha)
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
