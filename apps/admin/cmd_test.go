package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
	inmemdb "github.com/gothwad/classesx/storage/database/inmem"
	"github.com/gothwad/classesx/testutil"
)

const pwd = "Tr0ub4dor&3x"

func setup(t *testing.T) *commandLine {
	db := inmemdb.Open()
	origRead, origGoose := readPasswordFunc, gooseRunFunc
	t.Cleanup(func() { readPasswordFunc, gooseRunFunc = origRead, origGoose })
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	return &commandLine{
		usrRepo:  inmemdb.NewUserRepository(db),
		settings: inmemdb.NewSettingsRepository(db),
		records:  inmemdb.NewRecordsRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var ran []string
	gooseRunFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "attendance_index", "sql"}, wantErr: errCreateUnsupported},
	})
	assert.Equal(t, []string{"up", "up-to", "down-to", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-name", "X", "-email", "x@classesx.com", "-role", "teacher"}, wantErrStr: `unknown role "teacher"`},
		{name: "admin", args: []string{"adduser", "-name", " Principal ", "-email", "Principal@ClassesX.com"}},
		{name: "student by ID", args: []string{"adduser", "-name", "Asha", "-email", "STU-1", "-role", "student", "-phone", "9845012345"}},
		{name: "parent without student", args: []string{"adduser", "-name", "Mrs. Iyer", "-email", "PAR-1", "-role", "parent"}, wantErrStr: "parents need -student"},
		{name: "parent of ghost", args: []string{"adduser", "-name", "Mrs. Iyer", "-email", "PAR-1", "-role", "parent", "-student", "ghost"}, wantErr: user.ErrStudentNotFound},
		{name: "role is immutable", args: []string{"adduser", "-name", "Asha", "-email", "stu-1@student.classesx.com", "-role", "admin"}, wantErr: user.ErrRoleImmutable},
	})

	admin, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "principal@classesx.com"})
	require.NoError(t, err)
	assert.Equal(t, "Principal", admin.Name)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.NoError(t, admin.CheckPassword(pwd))

	stu, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "stu-1@student.classesx.com"})
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, stu.Role)
	assert.Equal(t, "9845012345", stu.Phone)

	t.Run("parent", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Mrs. Iyer", "-email", "PAR-1", "-role", "parent", "-student", stu.ID}))
		par, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "par-1@parent.classesx.com"})
		require.NoError(t, err)
		assert.Equal(t, stu.ID, par.StudentID)
		assert.True(t, par.Follows(stu.ID))
	})

	t.Run("empty password", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
		assert.Equal(t, errHelp, cli.run([]string{"admin", "adduser", "-name", "X", "-email", "x@classesx.com"}))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, cli.usrRepo, "Asha", "stu-1@student.classesx.com", "old-Passw0rd!", user.RoleStudent, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@classesx.com"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", " STU-1@student.classesx.com"}},
	})

	refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword(pwd))
}

func Test_commandLine_maintenance(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	runCLITests(t, cli, []cliTest{
		{name: "no state", args: []string{"maintenance"}, wantErr: errHelp},
		{name: "bad state", args: []string{"maintenance", "maybe"}, wantErr: errHelp},
		{name: "on", args: []string{"maintenance", "on"}},
	})
	s, err := cli.settings.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.UnderMaintenance)
	assert.Equal(t, settings.Defaults().AppName, s.AppName)

	require.NoError(t, cli.run([]string{"admin", "maintenance", "off"}))
	s, err = cli.settings.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, s.UnderMaintenance)
}

func Test_commandLine_importRecords(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	fees := write("fees.json", `[{"user_id":"u1","total":50000,"paid":20000,"history":[{"amount":20000,"date":"2026-06-01","method":"UPI"}]}]`)
	attendance := write("attendance.json", `[
		{"user_id":"u1","date":"2026-10-01","status":"absent"},
		{"user_id":"u1","date":"2026-10-02","status":"present"}
	]`)
	badDate := write("bad_date.json", `[{"user_id":"u1","date":"02/10/2026","status":"present"}]`)
	badStatus := write("bad_status.json", `[{"user_id":"u1","date":"2026-10-03","status":"sick"}]`)

	runCLITests(t, cli, []cliTest{
		{name: "fees: no file", args: []string{"importfees"}, wantErr: errHelp},
		{name: "fees", args: []string{"importfees", "-file", fees}},
		{name: "attendance: bad date", args: []string{"importattendance", "-file", badDate}, wantErrStr: `attendance of u1: bad date "02/10/2026"`},
		{name: "attendance: bad status", args: []string{"importattendance", "-file", badStatus}, wantErrStr: `attendance of u1: bad status "sick"`},
		{name: "attendance", args: []string{"importattendance", "-file", attendance}},
	})

	fee, err := cli.records.GetFeeRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, fee.Due())

	recs, err := cli.records.QueryAttendance(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2026-10-02", recs[0].Date)
	assert.Equal(t, records.Summary{Present: 1, Absent: 1}, records.Summarize(recs))
}
