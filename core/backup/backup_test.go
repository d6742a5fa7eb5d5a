package backup_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/backup"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

const pwd = "Tr0ub4dor&3x"

func TestService_Export(t *testing.T) {
	env := testutil.NewEnv(nil)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	stu := testutil.CreateUser(t, env.UserRepo, "Asha", "asha@classesx.com", pwd, user.RoleStudent, true)
	testutil.CreateBatch(t, env.Batches, admin, "JEE", "Physics")
	_, err := env.Notifications.Send(ctx, admin, notification.Compose{Title: "Holiday", Message: "Closed on Monday"})
	require.NoError(t, err)

	_, err = env.Backup.Export(ctx, stu)
	assert.Equal(t, core.ErrForbidden, err)
	_, err = env.Backup.Mail(ctx, stu)
	assert.Equal(t, core.ErrForbidden, err)
	assert.Empty(t, env.Mail.Sent())

	d, err := env.Backup.Export(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, d.Users, 2)
	assert.Len(t, d.Batches, 1)
	assert.Len(t, d.Notifications, 1)

	d, err = env.Backup.Mail(ctx, admin)
	require.NoError(t, err)
	sent := env.Mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin@classesx.com", sent[0].To[0].Address)
	require.Len(t, sent[0].Attachments, 1)

	at := sent[0].Attachments[0]
	assert.Equal(t, "backup_"+d.GeneratedAt.Format("2006-01-02")+".json", at.Filename)
	assert.Equal(t, "application/json", at.ContentType)

	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	var got backup.Dump
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got.Users, 2)
	assert.Equal(t, "Holiday", got.Notifications[0].Title)
}
