package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core/backup"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func Test_backupApi(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	asha := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	testutil.CreateBatch(t, env.Batches, admin, "JEE 2027", "Physics")

	runHTTPTests(t, srv, []httpTest{
		{name: "download needs admin", path: "/v1/backup", token: getToken(t, asha), wantCode: http.StatusForbidden},
		{name: "mail needs admin", method: http.MethodPost, path: "/v1/backup/mail", token: getToken(t, asha), wantCode: http.StatusForbidden},
	})

	t.Run("download", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/backup", getToken(t, admin))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var d backup.Dump
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
		assert.Len(t, d.Users, 2)
		assert.Len(t, d.Batches, 1)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), d.Filename())
	})

	t.Run("mail", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/backup/mail", getToken(t, admin))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		sent := env.Mail.Sent()
		require.Len(t, sent, 1)
		require.Len(t, sent[0].Attachments, 1)
		assert.Regexp(t, `^backup_\d{4}-\d{2}-\d{2}\.json$`, sent[0].Attachments[0].Filename)
	})
}
