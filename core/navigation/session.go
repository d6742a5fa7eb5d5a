package navigation

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoSession       = errors.New("not signed in")
)

// Account is a signed in identity. Its profile is stored separately.
type Account struct {
	UID   string
	Email string
}

// Identity is the backend the client signs in with and reads profiles from.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (Account, error)
	SignOut(ctx context.Context) error
	// CurrentAccount returns false when no session exists.
	CurrentAccount(ctx context.Context) (Account, bool, error)
	// Profile returns ErrProfileNotFound when the account has no profile or no role yet.
	Profile(ctx context.Context, uid string) (user.User, error)
	CreateProfile(ctx context.Context, uid string, role user.Role, identifier string) (user.User, error)
}

// RestoreSession picks the action the shell leaves LOADING with.
// A failed profile read is treated as a profile to set up.
func RestoreSession(ctx context.Context, id Identity) Action {
	acc, ok, err := id.CurrentAccount(ctx)
	if err != nil || !ok {
		return SessionMissing{}
	}
	usr, err := id.Profile(ctx, acc.UID)
	if err != nil {
		return SessionNeedsSetup{Err: err}
	}
	if !usr.HasProfile() {
		return SessionNeedsSetup{Err: ErrProfileNotFound}
	}
	if usr.Email == "" {
		usr.Email = acc.Email
	}
	return SessionRestored{User: usr}
}

// Login signs in through the portal of role.
// A missing profile is created for role. A profile with another role ends the session and fails with a
// *user.RoleMismatchError. On success the identifier is remembered for role when remember is set, and forgotten otherwise.
// Failing to save it does not fail the login.
func Login(ctx context.Context, id Identity, remembered *RememberedIDs, role user.Role, identifier, password string, remember bool) (user.User, error) {
	if !role.Valid() {
		return user.User{}, errors.Errorf("unknown role %q", role)
	}
	identifier = core.CleanString(identifier)
	acc, err := id.SignIn(ctx, user.LoginEmail(role, identifier, core.Conf.Identity), password)
	if err != nil {
		return user.User{}, err
	}

	usr, err := id.Profile(ctx, acc.UID)
	switch {
	case errors.Cause(err) == ErrProfileNotFound:
		if usr, err = id.CreateProfile(ctx, acc.UID, role, identifier); err != nil {
			return user.User{}, errors.Wrap(err, "creating profile")
		}
	case err != nil:
		return user.User{}, errors.Wrap(err, "loading profile")
	case usr.Role != role:
		if err = id.SignOut(ctx); err != nil {
			return user.User{}, errors.Wrap(err, "signing out")
		}
		return user.User{}, &user.RoleMismatchError{Selected: role, Actual: usr.Role}
	}
	if usr.Email == "" {
		usr.Email = acc.Email
	}

	if remembered != nil {
		remembered.update(role, identifier, remember)
	}
	return usr, nil
}

// LoginErrorMessage is the message shown on the login screen for err.
func LoginErrorMessage(err error) string {
	cause := errors.Cause(err)
	switch {
	case user.IsRoleMismatch(cause):
		return cause.Error()
	case cause == user.ErrAccountDeactivated:
		return "This account has been deactivated."
	}
	return "Invalid credentials. Please try again."
}
