package navigation

import (
	"time"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

const (
	SplashDuration = 3 * time.Second
	RestoreDelay   = 2 * time.Second
)

type Screen string

const (
	ScreenLoading       Screen = "LOADING"
	ScreenRoleSelection Screen = "ROLE_SELECTION"
	ScreenLogin         Screen = "LOGIN"
	ScreenHome          Screen = "HOME"
	ScreenProfile       Screen = "PROFILE"
	ScreenSettings      Screen = "SETTINGS"
	ScreenBatchDetails  Screen = "BATCH_DETAILS"
	ScreenNotifications Screen = "NOTIFICATIONS"
	ScreenMaintenance   Screen = "MAINTENANCE"
)

// Authenticated reports whether the screen is only reachable when signed in.
func (s Screen) Authenticated() bool {
	switch s {
	case ScreenHome, ScreenProfile, ScreenSettings, ScreenBatchDetails, ScreenNotifications, ScreenMaintenance:
		return true
	}
	return false
}

// Confirm names a destructive action waiting for its second tap.
type Confirm string

const (
	ConfirmNone     Confirm = ""
	ConfirmLogout   Confirm = "LOGOUT"
	ConfirmUnenroll Confirm = "UNENROLL"
)

// State is the root state of the app. Values are never mutated: Reduce returns a new one.
type State struct {
	Screen         Screen
	User           *user.User
	SelectedRole   user.Role
	DrawerOpen     bool
	Settings       settings.Settings
	SelectedBatch  *batch.Batch
	ForcedResource Resource
	ActiveTab      Tab
	Error          string
	ConfirmPending Confirm
	ConfirmTarget  string // student to unenroll
}

func InitialState() State {
	return State{
		Screen:    ScreenLoading,
		Settings:  settings.Defaults(),
		ActiveTab: TabBatches,
	}
}

// Capabilities is nil until a user with a role is signed in.
func (s State) Capabilities() Capabilities {
	if s.User == nil {
		return nil
	}
	return CapabilitiesFor(s.User.Role)
}

type Action interface {
	action()
}

type (
	SplashElapsed     struct{}
	SessionRestored   struct{ User user.User }
	SessionNeedsSetup struct{ Err error }
	SessionMissing    struct{}
	RoleSelected      struct{ Role user.Role }
	LoginSucceeded    struct{ User user.User }
	LoginFailed       struct{ Message string }
	Back              struct{}
	LoggedOut         struct{}
	SettingsChanged   struct{ Settings settings.Settings }
	ToggleDrawer      struct{}
	SelectResource    struct{ Resource Resource }
	TabPressed        struct{ Tab Tab }
	OpenProfile       struct{}
	OpenSettings      struct{}
	OpenNotifications struct{}
	SelectBatch       struct{ Batch batch.Batch }
	ProfileUpdated    struct{ User user.User }
	ArmLogout         struct{}
	ArmUnenroll       struct{ StudentID string }
	CancelConfirm     struct{}
	Unenrolled        struct{ Batch batch.Batch }
)

func (SplashElapsed) action()     {}
func (SessionRestored) action()   {}
func (SessionNeedsSetup) action() {}
func (SessionMissing) action()    {}
func (RoleSelected) action()      {}
func (LoginSucceeded) action()    {}
func (LoginFailed) action()       {}
func (Back) action()              {}
func (LoggedOut) action()         {}
func (SettingsChanged) action()   {}
func (ToggleDrawer) action()      {}
func (SelectResource) action()    {}
func (TabPressed) action()        {}
func (OpenProfile) action()       {}
func (OpenSettings) action()      {}
func (OpenNotifications) action() {}
func (SelectBatch) action()       {}
func (ProfileUpdated) action()    {}
func (ArmLogout) action()         {}
func (ArmUnenroll) action()       {}
func (CancelConfirm) action()     {}
func (Unenrolled) action()        {}

// Reduce returns the state following s once a is applied, with the maintenance gate enforced.
// A pending confirmation does not survive a change of screen.
func Reduce(s State, a Action) State {
	next := gate(reduce(s, a))
	if next.Screen != s.Screen {
		next.ConfirmPending, next.ConfirmTarget = ConfirmNone, ""
	}
	return next
}

func reduce(s State, a Action) State {
	switch a := a.(type) {
	case SettingsChanged:
		s.Settings = a.Settings
		return s
	case ArmLogout:
		if s.User != nil {
			s.ConfirmPending, s.ConfirmTarget = ConfirmLogout, ""
		}
		return s
	case CancelConfirm:
		s.ConfirmPending, s.ConfirmTarget = ConfirmNone, ""
		return s
	case LoggedOut:
		if s.ConfirmPending != ConfirmLogout {
			return s
		}
		return State{
			Screen:    ScreenRoleSelection,
			Settings:  s.Settings,
			ActiveTab: TabBatches,
		}
	}

	if s.Screen == ScreenMaintenance {
		// a confirmed logout is the only way out
		return s
	}

	switch a := a.(type) {
	case SplashElapsed, SessionMissing, SessionNeedsSetup:
		if s.Screen == ScreenLoading {
			s.Screen = ScreenRoleSelection
		}
	case SessionRestored:
		if s.Screen == ScreenLoading {
			usr := a.User
			s.User = &usr
			s.SelectedRole = usr.Role
			s.Screen = ScreenHome
		}
	case RoleSelected:
		if s.Screen == ScreenRoleSelection && a.Role.Valid() {
			s.SelectedRole = a.Role
			s.Error = ""
			s.Screen = ScreenLogin
		}
	case LoginSucceeded:
		if s.Screen == ScreenLogin {
			usr := a.User
			s.User = &usr
			s.Error = ""
			s.ActiveTab = TabBatches
			s.ForcedResource = ""
			s.Screen = ScreenHome
		}
	case LoginFailed:
		if s.Screen == ScreenLogin {
			s.Error = a.Message
		}
	case Back:
		switch s.Screen {
		case ScreenLogin:
			s.Error = ""
			s.Screen = ScreenRoleSelection
		case ScreenProfile, ScreenSettings, ScreenNotifications:
			s.Screen = ScreenHome
		case ScreenBatchDetails:
			s.SelectedBatch = nil
			s.Screen = ScreenHome
		}
	case ToggleDrawer:
		if s.User != nil && s.Screen == ScreenHome {
			s.DrawerOpen = !s.DrawerOpen
			if !s.DrawerOpen && s.ConfirmPending == ConfirmLogout {
				s.ConfirmPending = ConfirmNone
			}
		}
	case SelectResource:
		if caps := s.Capabilities(); caps != nil && s.Screen == ScreenHome {
			if a.Resource == "" || s.ForcedResource == a.Resource {
				s.ForcedResource = ""
			} else if hasResource(caps, a.Resource) {
				s.ForcedResource = a.Resource
			}
			s.DrawerOpen = false
		}
	case TabPressed:
		if caps := s.Capabilities(); caps != nil && s.Screen == ScreenHome && hasTab(caps, a.Tab) {
			s.ActiveTab = a.Tab
			s.ForcedResource = ""
		}
	case OpenProfile:
		if s.User != nil && s.Screen == ScreenHome {
			s.DrawerOpen = false
			s.Screen = ScreenProfile
		}
	case OpenSettings:
		if caps := s.Capabilities(); caps != nil && caps.CanManageSettings() && s.Screen.Authenticated() {
			s.DrawerOpen = false
			s.Screen = ScreenSettings
		}
	case OpenNotifications:
		if s.User != nil && s.Screen == ScreenHome {
			s.DrawerOpen = false
			s.Screen = ScreenNotifications
		}
	case SelectBatch:
		if s.User != nil && s.Screen == ScreenHome {
			b := a.Batch
			s.SelectedBatch = &b
			s.Screen = ScreenBatchDetails
		}
	case ArmUnenroll:
		if caps := s.Capabilities(); caps != nil && caps.CanManageCurriculum() &&
			s.Screen == ScreenBatchDetails && s.SelectedBatch != nil && s.SelectedBatch.HasStudent(a.StudentID) {
			s.ConfirmPending, s.ConfirmTarget = ConfirmUnenroll, a.StudentID
		}
	case Unenrolled:
		if s.ConfirmPending == ConfirmUnenroll && s.SelectedBatch != nil && s.SelectedBatch.ID == a.Batch.ID {
			b := a.Batch
			s.SelectedBatch = &b
			s.ConfirmPending, s.ConfirmTarget = ConfirmNone, ""
		}
	case ProfileUpdated:
		if s.User != nil && s.User.ID == a.User.ID {
			usr := a.User
			s.User = &usr
		}
	}
	return s
}

// gate moves signed in users the maintenance flag applies to out of the app, and back in once it clears.
func gate(s State) State {
	caps := s.Capabilities()
	switch {
	case caps == nil:
		if s.Screen.Authenticated() {
			s.Screen = ScreenRoleSelection
		}
	case s.Settings.UnderMaintenance && !caps.BypassesMaintenance() && s.Screen.Authenticated():
		s.Screen = ScreenMaintenance
		s.DrawerOpen = false
		s.SelectedBatch = nil
	case s.Screen == ScreenMaintenance && (!s.Settings.UnderMaintenance || caps.BypassesMaintenance()):
		s.Screen = ScreenHome
	}
	return s
}
