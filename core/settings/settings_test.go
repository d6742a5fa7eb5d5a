package settings_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/testutil"
)

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(nil)
	admin := user.User{ID: "a1", Role: user.RoleAdmin}

	s, err := env.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), s)

	_, err = env.Settings.Update(ctx, user.User{ID: "s1", Role: user.RoleStudent}, settings.Update{AppName: "x"})
	assert.Equal(t, core.ErrForbidden, err)

	_, err = env.Settings.Update(ctx, admin, settings.Update{PrimaryColor: "blue"})
	assert.IsType(t, validator.ValidationErrors{}, err)

	s, err = env.Settings.Update(ctx, admin, settings.Update{AppName: "  apex classes ", PrimaryColor: "#16A34A"})
	require.NoError(t, err)
	assert.Equal(t, "APEX CLASSES", s.AppName)
	assert.Equal(t, "#16a34a", s.PrimaryColor)
	assert.Equal(t, settings.Defaults().LogoEmoji, s.LogoEmoji, "empty fields are kept")
	assert.Equal(t, settings.Defaults().BackgroundColor, s.BackgroundColor)
}

func TestService_MaintenanceIsWatched(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(nil)
	admin := user.User{ID: "a1", Role: user.RoleAdmin}

	_, err := env.Settings.SetMaintenance(ctx, user.User{ID: "p1", Role: user.RoleParent}, true)
	assert.Equal(t, core.ErrForbidden, err)

	var (
		mu   sync.Mutex
		seen []bool
	)
	w, err := env.Settings.Watch(ctx, func(s settings.Settings, err error) {
		require.NoError(t, err)
		mu.Lock()
		seen = append(seen, s.UnderMaintenance)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	last := func() (bool, int) {
		mu.Lock()
		defer mu.Unlock()
		if len(seen) == 0 {
			return false, 0
		}
		return seen[len(seen)-1], len(seen)
	}
	assert.Eventually(t, func() bool { _, n := last(); return n >= 1 }, time.Second, 5*time.Millisecond)

	s, err := env.Settings.SetMaintenance(ctx, admin, true)
	require.NoError(t, err)
	assert.True(t, s.UnderMaintenance)
	assert.Eventually(t, func() bool { on, _ := last(); return on }, time.Second, 5*time.Millisecond)

	_, err = env.Settings.SetMaintenance(ctx, admin, false)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { on, _ := last(); return !on }, time.Second, 5*time.Millisecond)
}
