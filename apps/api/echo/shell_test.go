package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func TestMaintenance(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	student := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	adminToken, studentToken := getToken(t, admin), getToken(t, student)

	on := settings.Defaults()
	on.UnderMaintenance = true
	maintenance := marchallObj(t, httpErr{Error: "The app is under maintenance. Please check back later."})

	runHTTPTests(t, srv, []httpTest{
		{
			name: "students may not switch it on", method: http.MethodPut, path: "/v1/settings/maintenance",
			token: studentToken, body: []byte(`{"on":true}`), wantCode: http.StatusForbidden,
		},
		{
			name: "switch on", method: http.MethodPut, path: "/v1/settings/maintenance",
			token: adminToken, body: []byte(`{"on":true}`), wantCode: http.StatusOK, wantData: marchallObj(t, on),
		},
		{name: "student is turned away", path: "/v1/batches", token: studentToken, wantCode: http.StatusServiceUnavailable, wantData: maintenance},
		{name: "student may still read settings", path: "/v1/settings", wantCode: http.StatusOK, wantData: marchallObj(t, on)},
		{name: "student may still read profile", path: "/v1/users/me", token: studentToken, wantCode: http.StatusOK},
		{name: "admin passes", path: "/v1/batches", token: adminToken, wantCode: http.StatusOK},
		{
			name: "switch off", method: http.MethodPut, path: "/v1/settings/maintenance",
			token: adminToken, body: []byte(`{"on":false}`), wantCode: http.StatusOK, wantData: marchallObj(t, settings.Defaults()),
		},
		{name: "student is back", path: "/v1/batches", token: studentToken, wantCode: http.StatusOK},
	})
}

func TestSettings(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)

	want := settings.Defaults()
	want.AppName = "APEX CLASSES"
	want.PrimaryColor = "#ff0000"

	runHTTPTests(t, srv, []httpTest{
		{name: "defaults", path: "/v1/settings", wantCode: http.StatusOK, wantData: marchallObj(t, settings.Defaults())},
		{
			name: "update needs auth", method: http.MethodPut, path: "/v1/settings",
			body: []byte(`{"app_name":"x"}`), wantCode: http.StatusUnauthorized,
		},
		{
			name: "bad color", method: http.MethodPut, path: "/v1/settings", token: getToken(t, admin),
			body: []byte(`{"primary_color":"red"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/settings", token: getToken(t, admin),
			body: []byte(`{"app_name":" apex classes ","primary_color":"#FF0000"}`), wantCode: http.StatusOK, wantData: marchallObj(t, want),
		},
		{name: "read back", path: "/v1/settings", wantCode: http.StatusOK, wantData: marchallObj(t, want)},
	})
}

func TestIndexProvisioning(t *testing.T) {
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	student := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)

	_, err := env.Notifications.Send(context.Background(), admin, notification.Compose{Title: "Holiday", Message: "Closed on Monday"})
	require.NoError(t, err)

	env.DB.SetIndexBuilding(true)
	req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", getToken(t, student))
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusServiceUnavailable,
		wantData: marchallObj(t, map[string]interface{}{"error": core.ErrIndexUnavailable.Error(), "provisioning": true}),
	}, rec)

	env.DB.SetIndexBuilding(false)
	req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", getToken(t, student))
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Closed on Monday")
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestApp(t, nil)

	req, rec := newAuthRequest(http.MethodGet, "/v1/batches", "")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/metrics", "")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `classesx_http_requests_total{code="401",method="GET",route="/v1/batches"} 1`), body)
	assert.Contains(t, body, "classesx_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}
