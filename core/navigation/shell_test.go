package navigation

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

var (
	admin   = user.User{ID: "a1", Name: "Admin User", Role: user.RoleAdmin, IsActive: true}
	student = user.User{ID: "s1", Name: "Asha", Role: user.RoleStudent, IsActive: true}
	parent  = user.User{ID: "p1", Name: "Ravi", Role: user.RoleParent, StudentID: "s1", IsActive: true}
)

func home(usr user.User) State {
	s := InitialState()
	s = Reduce(s, SessionRestored{User: usr})
	return s
}

func maintenance(on bool) SettingsChanged {
	s := settings.Defaults()
	s.UnderMaintenance = on
	return SettingsChanged{Settings: s}
}

func TestReduce_Transitions(t *testing.T) {
	b := batch.Batch{ID: "b1", Name: "JEE 2025"}

	tests := []struct {
		name    string
		from    State
		actions []Action
		want    Screen
	}{
		{"splash to role selection", InitialState(), []Action{SplashElapsed{}}, ScreenRoleSelection},
		{"no session", InitialState(), []Action{SessionMissing{}}, ScreenRoleSelection},
		{"profile to set up", InitialState(), []Action{SessionNeedsSetup{Err: ErrProfileNotFound}}, ScreenRoleSelection},
		{"restored", InitialState(), []Action{SessionRestored{User: student}}, ScreenHome},
		{"role selected", InitialState(), []Action{SessionMissing{}, RoleSelected{Role: user.RoleParent}}, ScreenLogin},
		{"unknown role ignored", InitialState(), []Action{SessionMissing{}, RoleSelected{Role: "TEACHER"}}, ScreenRoleSelection},
		{"login back", InitialState(), []Action{SessionMissing{}, RoleSelected{Role: user.RoleStudent}, Back{}}, ScreenRoleSelection},
		{"login failed stays", InitialState(), []Action{SessionMissing{}, RoleSelected{Role: user.RoleStudent}, LoginFailed{Message: "nope"}}, ScreenLogin},
		{"login succeeded", InitialState(), []Action{SessionMissing{}, RoleSelected{Role: user.RoleStudent}, LoginSucceeded{User: student}}, ScreenHome},
		{"login ignored outside login", InitialState(), []Action{LoginSucceeded{User: student}}, ScreenLoading},
		{"batch details and back", home(student), []Action{SelectBatch{Batch: b}, Back{}}, ScreenHome},
		{"profile", home(student), []Action{OpenProfile{}}, ScreenProfile},
		{"notifications and back", home(parent), []Action{OpenNotifications{}, Back{}}, ScreenHome},
		{"settings as admin", home(admin), []Action{OpenSettings{}}, ScreenSettings},
		{"settings refused to students", home(student), []Action{OpenSettings{}}, ScreenHome},
		{"logout", home(student), []Action{OpenProfile{}, ArmLogout{}, LoggedOut{}}, ScreenRoleSelection},
		{"logout needs arming", home(student), []Action{OpenProfile{}, LoggedOut{}}, ScreenProfile},
		{"back on home does nothing", home(student), []Action{Back{}}, ScreenHome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.from
			for _, a := range tt.actions {
				s = Reduce(s, a)
			}
			assert.Equal(t, tt.want, s.Screen)
		})
	}
}

func TestReduce_LoginFailedKeepsMessage(t *testing.T) {
	s := Reduce(Reduce(InitialState(), SessionMissing{}), RoleSelected{Role: user.RoleAdmin})
	s = Reduce(s, LoginFailed{Message: "Invalid credentials. Please try again."})
	assert.Equal(t, "Invalid credentials. Please try again.", s.Error)

	s = Reduce(s, Back{})
	assert.Empty(t, s.Error)
}

func TestReduce_LoggedOutClearsUser(t *testing.T) {
	s := home(admin)
	s = Reduce(s, maintenance(false))
	s = Reduce(s, SelectResource{Resource: ResourceAddStudent})
	s = Reduce(s, ArmLogout{})
	s = Reduce(s, LoggedOut{})

	assert.Nil(t, s.User)
	assert.Empty(t, s.SelectedRole)
	assert.Empty(t, s.ForcedResource)
	assert.Nil(t, s.Capabilities())
	assert.Equal(t, settings.Defaults(), s.Settings)
}

func TestReduce_ConfirmLogout(t *testing.T) {
	s := Reduce(home(parent), ToggleDrawer{})

	s = Reduce(s, ArmLogout{})
	assert.Equal(t, ConfirmLogout, s.ConfirmPending)
	s = Reduce(s, CancelConfirm{})
	assert.Equal(t, ConfirmNone, s.ConfirmPending)
	s = Reduce(s, LoggedOut{})
	assert.Equal(t, ScreenHome, s.Screen, "cancelled logouts are ignored")
	require.NotNil(t, s.User)

	s = Reduce(s, ArmLogout{})
	s = Reduce(s, LoggedOut{})
	assert.Equal(t, ScreenRoleSelection, s.Screen)
	assert.Nil(t, s.User)
	assert.Equal(t, ConfirmNone, s.ConfirmPending)
}

func TestReduce_ConfirmDropped(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
	}{
		{"drawer closed", []Action{ToggleDrawer{}, ArmLogout{}, ToggleDrawer{}}},
		{"screen changed", []Action{ArmLogout{}, OpenProfile{}}},
		{"maintenance started", []Action{ArmLogout{}, maintenance(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := home(student)
			for _, a := range tt.actions {
				s = Reduce(s, a)
			}
			assert.Equal(t, ConfirmNone, s.ConfirmPending)
			s = Reduce(s, LoggedOut{})
			assert.NotNil(t, s.User)
		})
	}

	assert.Equal(t, ConfirmNone, Reduce(InitialState(), ArmLogout{}).ConfirmPending, "nobody to sign out")
}

func TestReduce_ConfirmUnenroll(t *testing.T) {
	b := batch.Batch{ID: "b1", Name: "JEE 2025", StudentIDs: []string{"s1", "s2"}}

	s := Reduce(home(student), SelectBatch{Batch: b})
	s = Reduce(s, ArmUnenroll{StudentID: "s2"})
	assert.Equal(t, ConfirmNone, s.ConfirmPending, "students cannot unenroll")

	s = Reduce(home(admin), SelectBatch{Batch: b})
	s = Reduce(s, ArmUnenroll{StudentID: "ghost"})
	assert.Equal(t, ConfirmNone, s.ConfirmPending)

	s = Reduce(s, ArmUnenroll{StudentID: "s2"})
	assert.Equal(t, ConfirmUnenroll, s.ConfirmPending)
	assert.Equal(t, "s2", s.ConfirmTarget)
	s = Reduce(s, CancelConfirm{})
	assert.Empty(t, s.ConfirmTarget)

	// the update only lands while armed
	done := batch.Batch{ID: "b1", Name: "JEE 2025", StudentIDs: []string{"s1"}}
	s = Reduce(s, Unenrolled{Batch: done})
	assert.Len(t, s.SelectedBatch.StudentIDs, 2)

	s = Reduce(s, ArmUnenroll{StudentID: "s2"})
	s = Reduce(s, Unenrolled{Batch: done})
	assert.Equal(t, ConfirmNone, s.ConfirmPending)
	assert.Equal(t, []string{"s1"}, s.SelectedBatch.StudentIDs)
	assert.Equal(t, ScreenBatchDetails, s.Screen)
}

func TestReduce_DoesNotMutate(t *testing.T) {
	before := home(student)
	usr := *before.User
	_ = Reduce(before, ProfileUpdated{User: user.User{ID: "s1", Name: "Asha K"}})
	assert.Equal(t, usr, *before.User)
}

func TestReduce_MaintenanceGate(t *testing.T) {
	for _, usr := range []user.User{student, parent} {
		t.Run(string(usr.Role), func(t *testing.T) {
			s := home(usr)
			s = Reduce(s, OpenNotifications{})
			s = Reduce(s, maintenance(true))
			assert.Equal(t, ScreenMaintenance, s.Screen)

			// nothing but logout leaves the maintenance screen
			for _, a := range []Action{Back{}, OpenProfile{}, ToggleDrawer{}, TabPressed{Tab: TabFees}} {
				s = Reduce(s, a)
				assert.Equal(t, ScreenMaintenance, s.Screen)
			}

			s = Reduce(s, maintenance(false))
			assert.Equal(t, ScreenHome, s.Screen)
			require.NotNil(t, s.User)
			assert.Equal(t, usr.ID, s.User.ID)
		})
	}

	t.Run("logout", func(t *testing.T) {
		s := Reduce(home(student), maintenance(true))
		s = Reduce(s, LoggedOut{})
		assert.Equal(t, ScreenMaintenance, s.Screen)
		s = Reduce(s, ArmLogout{})
		assert.Equal(t, ConfirmLogout, s.ConfirmPending)
		s = Reduce(s, LoggedOut{})
		assert.Equal(t, ScreenRoleSelection, s.Screen)
	})

	t.Run("admins bypass", func(t *testing.T) {
		s := Reduce(home(admin), maintenance(true))
		assert.Equal(t, ScreenHome, s.Screen)
		s = Reduce(s, OpenSettings{})
		assert.Equal(t, ScreenSettings, s.Screen)
	})

	t.Run("restored under maintenance", func(t *testing.T) {
		s := Reduce(InitialState(), maintenance(true))
		s = Reduce(s, SessionRestored{User: parent})
		assert.Equal(t, ScreenMaintenance, s.Screen)
	})

	t.Run("signed out screens are not gated", func(t *testing.T) {
		s := Reduce(Reduce(InitialState(), maintenance(true)), SessionMissing{})
		s = Reduce(s, RoleSelected{Role: user.RoleStudent})
		assert.Equal(t, ScreenLogin, s.Screen)
	})
}

func TestReduce_Resources(t *testing.T) {
	s := home(student)
	s = Reduce(s, TabPressed{Tab: TabAttendance})
	s = Reduce(s, ToggleDrawer{})
	assert.True(t, s.DrawerOpen)

	s = Reduce(s, SelectResource{Resource: ResourceTutor})
	assert.Equal(t, ResourceTutor, s.ForcedResource)
	assert.Equal(t, TabAttendance, s.ActiveTab, "the tab underneath is kept")
	assert.False(t, s.DrawerOpen)

	// selecting the forced resource again dismisses it
	s = Reduce(s, SelectResource{Resource: ResourceTutor})
	assert.Empty(t, s.ForcedResource)

	s = Reduce(s, SelectResource{Resource: ResourceAddStudent})
	assert.Empty(t, s.ForcedResource, "students cannot add students")

	s = Reduce(s, SelectResource{Resource: ResourceLibrary})
	s = Reduce(s, TabPressed{Tab: TabFees})
	assert.Equal(t, TabFees, s.ActiveTab)
	assert.Empty(t, s.ForcedResource)

	s = Reduce(s, TabPressed{Tab: TabStudents})
	assert.Equal(t, TabFees, s.ActiveTab, "the students tab is admin only")

	a := Reduce(home(admin), TabPressed{Tab: TabStudents})
	assert.Equal(t, TabStudents, a.ActiveTab)
	a = Reduce(a, SelectResource{Resource: ResourceAddStudent})
	assert.Equal(t, ResourceAddStudent, a.ForcedResource)
}

func TestCapabilitiesFor(t *testing.T) {
	assert.Nil(t, CapabilitiesFor(""))
	assert.IsType(t, AdminNavigator{}, CapabilitiesFor(user.RoleAdmin))
	assert.IsType(t, MemberNavigator{}, CapabilitiesFor(user.RoleStudent))
	assert.IsType(t, MemberNavigator{}, CapabilitiesFor(user.RoleParent))

	caps := CapabilitiesFor(user.RoleAdmin)
	assert.True(t, caps.CanManageCurriculum())
	assert.True(t, caps.CanSendNotifications())
	assert.True(t, caps.BypassesMaintenance())
	assert.True(t, hasResource(caps, ResourceAddStudent))

	caps = CapabilitiesFor(user.RoleParent)
	assert.False(t, caps.CanManageCurriculum())
	assert.False(t, caps.CanManageSettings())
	assert.False(t, caps.BypassesMaintenance())
	assert.False(t, hasTab(caps, TabStudents))
	assert.True(t, hasTab(caps, TabFees))
}

type identityStub struct {
	acc       *Account
	profile   user.User
	profErr   error
	signedOut bool
}

func (id *identityStub) SignIn(context.Context, string, string) (Account, error) {
	return Account{UID: id.profile.ID}, nil
}

func (id *identityStub) SignOut(context.Context) error {
	id.signedOut = true
	id.acc = nil
	return nil
}

func (id *identityStub) CurrentAccount(context.Context) (Account, bool, error) {
	if id.acc == nil {
		return Account{}, false, nil
	}
	return *id.acc, true, nil
}

func (id *identityStub) Profile(context.Context, string) (user.User, error) {
	return id.profile, id.profErr
}

func (id *identityStub) CreateProfile(context.Context, string, user.Role, string) (user.User, error) {
	return user.User{}, ErrNoSession
}

// slowIdentity has a session whose lookup never finishes.
type slowIdentity struct{ identityStub }

func (*slowIdentity) CurrentAccount(ctx context.Context) (Account, bool, error) {
	<-ctx.Done()
	return Account{}, false, ctx.Err()
}

func TestApp_Boot(t *testing.T) {
	var (
		mu    sync.Mutex
		slept time.Duration
	)
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		if d == SplashDuration {
			<-ctx.Done()
			return ctx.Err()
		}
		mu.Lock()
		slept += d
		mu.Unlock()
		return nil
	}
	defer func() { sleep = orig }()

	t.Run("no session waits for the splash", func(t *testing.T) {
		slept = 0
		app := NewApp(&identityStub{}, nil, nil)
		s := app.Boot(context.Background())
		assert.Equal(t, ScreenRoleSelection, s.Screen)
		assert.Equal(t, RestoreDelay, slept)
	})

	t.Run("restored", func(t *testing.T) {
		slept = 0
		var seen []Screen
		app := NewApp(&identityStub{acc: &Account{UID: "s1", Email: "s1@student.classesx.com"}, profile: student}, nil,
			func(s State) { seen = append(seen, s.Screen) })
		s := app.Boot(context.Background())
		assert.Equal(t, ScreenHome, s.Screen)
		assert.Equal(t, "s1@student.classesx.com", s.User.Email)
		assert.Zero(t, slept)
		assert.Equal(t, []Screen{ScreenHome}, seen)
	})

	t.Run("missing profile needs setup", func(t *testing.T) {
		app := NewApp(&identityStub{acc: &Account{UID: "x"}, profErr: ErrProfileNotFound}, nil, nil)
		s := app.Boot(context.Background())
		assert.Equal(t, ScreenRoleSelection, s.Screen)
		assert.Nil(t, s.User)
	})

	t.Run("splash outlasts a slow restore", func(t *testing.T) {
		sleep = func(ctx context.Context, d time.Duration) error {
			if d == SplashDuration {
				return nil
			}
			<-ctx.Done()
			return ctx.Err()
		}
		app := NewApp(&slowIdentity{}, nil, nil)
		s := app.Boot(context.Background())
		assert.Equal(t, ScreenRoleSelection, s.Screen)
		assert.Nil(t, s.User)
	})

	t.Run("cancelled", func(t *testing.T) {
		sleep = orig
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		app := NewApp(&identityStub{}, nil, nil)
		assert.Equal(t, ScreenLoading, app.Boot(ctx).Screen)
	})
}

func TestRememberedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remembered.json")

	ids, err := NewRememberedIDs(path, nil)
	require.NoError(t, err)
	assert.Empty(t, ids.Get(user.RoleStudent))

	require.NoError(t, ids.Set(user.RoleStudent, "STU-042"))
	require.NoError(t, ids.Set(user.RoleParent, "PAR-007"))

	reloaded, err := NewRememberedIDs(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "STU-042", reloaded.Get(user.RoleStudent))
	assert.Equal(t, "PAR-007", reloaded.Get(user.RoleParent))

	require.NoError(t, reloaded.Forget(user.RoleStudent))
	assert.Empty(t, reloaded.Get(user.RoleStudent))

	mem, err := NewRememberedIDs("", nil)
	require.NoError(t, err)
	require.NoError(t, mem.Set(user.RoleAdmin, "admin@classesx.com"))
	assert.Equal(t, "admin@classesx.com", mem.Get(user.RoleAdmin))
}
