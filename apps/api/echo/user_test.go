package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/gothwad/classesx/apps/api/echo"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func Test_userApi_login(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	student := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	testutil.CreateUser(t, env.UserRepo, "Gone", "gone@student.classesx.com", pwd, user.RoleStudent, false)

	login := func(role, identifier, password string) []byte {
		return marchallObj(t, map[string]string{"role": role, "identifier": identifier, "password": password})
	}
	path := "/v1/users/login"

	runHTTPTests(t, srv, []httpTest{
		{
			name: "bad password", method: http.MethodPost, path: path, body: login("admin", admin.Email, "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: user.ErrInvalidCredentials.Error()}),
		},
		{
			name: "deactivated", method: http.MethodPost, path: path, body: login("student", "gone", pwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: user.ErrAccountDeactivated.Error()}),
		},
		{
			name: "other portal", method: http.MethodPost, path: path, body: login("student", admin.Email, pwd),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "This account is not registered as a student."}),
		},
		{name: "missing fields", method: http.MethodPost, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest},
	})

	for _, tc := range []struct {
		name       string
		role       string
		identifier string
		want       user.User
	}{
		{name: "admin by email", role: "ADMIN", identifier: " Admin@ClassesX.com", want: admin},
		{name: "student by ID", role: "student", identifier: "STU-1", want: student},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, path, "", login(tc.role, tc.identifier, pwd))
			srv.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp echoapi.LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Token)
			if assert.NotNil(t, resp.User) {
				assert.Equal(t, tc.want.ID, resp.User.ID)
				assert.False(t, resp.User.LastLogin.IsZero())
			}

			// the token opens the app
			req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token)
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	srv, env := newTestApp(t, nil)
	student := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	gone := testutil.CreateUser(t, env.UserRepo, "Gone", "gone@student.classesx.com", pwd, user.RoleStudent, false)
	ghost := user.User{ID: "ghost", Name: "Ghost", Email: "ghost@classesx.com", Role: user.RoleStudent}

	runHTTPTests(t, srv, []httpTest{
		{name: "auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "ghost", path: "/v1/users/me", token: getToken(t, ghost), wantCode: http.StatusUnauthorized},
		{
			name: "deactivated", path: "/v1/users/me", token: getToken(t, gone),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "ok", path: "/v1/users/me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
	})
}

func Test_userApi_detail(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	asha := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	ravi := testutil.CreateUser(t, env.UserRepo, "Ravi", "stu-2@student.classesx.com", pwd, user.RoleStudent, true)

	runHTTPTests(t, srv, []httpTest{
		{name: "self", path: "/v1/users/" + asha.ID, token: getToken(t, asha), wantCode: http.StatusOK, wantData: marchallObj(t, asha)},
		{name: "someone else", path: "/v1/users/" + ravi.ID, token: getToken(t, asha), wantCode: http.StatusNotFound},
		{name: "admin", path: "/v1/users/" + ravi.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, ravi)},
		{
			name: "query needs admin", path: "/v1/users", token: getToken(t, asha),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "query by name", path: "/v1/users?ordering=name", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{admin, asha, ravi}),
		},
		{
			name: "unknown ordering fields are dropped", path: "/v1/users?ordering=-name,password_hash", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{ravi, asha, admin}),
		},
	})
}
