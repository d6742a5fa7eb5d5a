package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/gothwad/classesx/apps/api/echo"
	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/tutor"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

const pwd = "Tr0ub4dor&3x"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// newTestApp serves the whole API on a fresh in-memory Env.
func newTestApp(t *testing.T, model tutor.Model) (*echoapi.Server, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(model)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            core.Conf,
		Logger:          env.Logger,
		Validate:        env.Validate,
		Translator:      core.NewTranslator(),
		Broker:          env.Broker,
		DisableReqLogs:  true,
		UserSvc:         env.Users,
		BatchSvc:        env.Batches,
		CurriculumSvc:   env.Curriculum,
		ExamSvc:         env.Exams,
		NotificationSvc: env.Notifications,
		SettingsSvc:     env.Settings,
		RecordsSvc:      env.Records,
		TutorSvc:        env.Tutor,
		BackupSvc:       env.Backup,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, env
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	if method == "" {
		method = http.MethodGet
	}
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.IssueToken(usr)
	require.NoError(t, err, "getToken()")
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marchallObj()")
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if assert.NoError(t, err, "jsonBytesEqual()") {
		assert.True(t, ok, "data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv *echoapi.Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
