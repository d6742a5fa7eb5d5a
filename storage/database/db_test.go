package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
)

func TestDSN(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db.internal",
		Port:          5432,
		Name:          "classesx",
		User:          "app",
		Password:      "p@ss:word",
		AdminUser:     "postgres",
		AdminPassword: "root",
	}}

	tests := []struct {
		name     string
		dbName   string
		admin    bool
		tls      bool
		wantUser string
		wantPwd  string
		wantSSL  string
	}{
		{name: "app user", dbName: "classesx", wantUser: "app", wantPwd: "p@ss:word", wantSSL: "require"},
		{name: "admin", dbName: "postgres", admin: true, wantUser: "postgres", wantPwd: "root", wantSSL: "require"},
		{name: "tls disabled", dbName: "classesx", tls: true, wantUser: "app", wantPwd: "p@ss:word", wantSSL: "disable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf.Database.DisableTLS = tt.tls
			u, err := url.Parse(dsn(tt.dbName, tt.admin, conf))
			require.NoError(t, err)

			assert.Equal(t, "postgres", u.Scheme)
			assert.Equal(t, "db.internal:5432", u.Host)
			assert.Equal(t, "/"+tt.dbName, u.Path)
			assert.Equal(t, tt.wantUser, u.User.Username())
			pwd, _ := u.User.Password()
			assert.Equal(t, tt.wantPwd, pwd)
			assert.Equal(t, tt.wantSSL, u.Query().Get("sslmode"))
			assert.Equal(t, "utc", u.Query().Get("timezone"))
		})
	}
}
