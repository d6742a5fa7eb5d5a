package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/settings"
)

// sleep waits for d unless ctx is done first. Tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ErrNotConfirmed is returned when a destructive action runs without being armed first.
var ErrNotConfirmed = errors.New("action not confirmed")

// App owns the shell State and is its single writer.
type App struct {
	id         Identity
	remembered *RememberedIDs

	mu       sync.Mutex
	state    State
	onChange func(State)
	settings *live.Watcher
}

// NewApp returns an App on the splash screen. onChange, when set, receives every new state.
func NewApp(id Identity, remembered *RememberedIDs, onChange func(State)) *App {
	return &App{
		id:         id,
		remembered: remembered,
		state:      InitialState(),
		onChange:   onChange,
	}
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) Dispatch(act Action) State {
	a.mu.Lock()
	a.state = Reduce(a.state, act)
	s := a.state
	a.mu.Unlock()
	if a.onChange != nil {
		a.onChange(s)
	}
	return s
}

// Boot restores the session while the splash is up. A restore still running after SplashDuration
// is abandoned for the role selection. Without a session, the splash stays up for RestoreDelay first.
func (a *App) Boot(ctx context.Context) State {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	restored := make(chan Action, 1)
	go func() { restored <- RestoreSession(ctx, a.id) }()
	splash := make(chan error, 1)
	go func() { splash <- sleep(ctx, SplashDuration) }()

	select {
	case act := <-restored:
		if _, missing := act.(SessionMissing); missing {
			if err := sleep(ctx, RestoreDelay); err != nil {
				return a.State()
			}
		}
		return a.Dispatch(act)
	case err := <-splash:
		if err != nil {
			return a.State()
		}
		return a.Dispatch(SplashElapsed{})
	}
}

// WatchSettings keeps the shell settings live, the maintenance flag included.
func (a *App) WatchSettings(ctx context.Context, svc settings.Service) error {
	w, err := svc.Watch(ctx, func(s settings.Settings, err error) {
		if err == nil {
			a.Dispatch(SettingsChanged{Settings: s})
		}
	})
	if err != nil {
		return errors.Wrap(err, "watching settings")
	}
	a.mu.Lock()
	prev := a.settings
	a.settings = w
	a.mu.Unlock()
	prev.Close()
	return nil
}

// RememberedID prefills the login form of the selected role.
func (a *App) RememberedID() string {
	s := a.State()
	if a.remembered == nil || s.SelectedRole == "" {
		return ""
	}
	return a.remembered.Get(s.SelectedRole)
}

// Login signs in through the portal of the selected role.
func (a *App) Login(ctx context.Context, identifier, password string, remember bool) (State, error) {
	role := a.State().SelectedRole
	usr, err := Login(ctx, a.id, a.remembered, role, identifier, password, remember)
	if err != nil {
		return a.Dispatch(LoginFailed{Message: LoginErrorMessage(err)}), err
	}
	return a.Dispatch(LoginSucceeded{User: usr}), nil
}

// Logout signs out once ArmLogout has been dispatched.
func (a *App) Logout(ctx context.Context) (State, error) {
	if s := a.State(); s.ConfirmPending != ConfirmLogout {
		return s, ErrNotConfirmed
	}
	if err := a.id.SignOut(ctx); err != nil {
		return a.State(), errors.Wrap(err, "signing out")
	}
	return a.Dispatch(LoggedOut{}), nil
}

// Unenroll removes the student armed with ArmUnenroll from the selected batch.
func (a *App) Unenroll(ctx context.Context, batches batch.Service) (State, error) {
	s := a.State()
	if s.ConfirmPending != ConfirmUnenroll || s.SelectedBatch == nil || s.User == nil {
		return s, ErrNotConfirmed
	}
	b, err := batches.Unenroll(ctx, *s.User, s.SelectedBatch.ID, s.ConfirmTarget)
	if err != nil {
		return a.Dispatch(CancelConfirm{}), errors.Wrap(err, "unenrolling student")
	}
	return a.Dispatch(Unenrolled{Batch: b}), nil
}

// Close stops the settings watch.
func (a *App) Close() {
	a.mu.Lock()
	w := a.settings
	a.settings = nil
	a.mu.Unlock()
	w.Close()
}
