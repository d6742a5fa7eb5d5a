package navigation

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/user"
)

// LocalBackend is an in-process Identity over the user service. It holds one session at a time.
type LocalBackend struct {
	usrSvc user.Service

	mu      sync.Mutex
	current *Account
}

var _ Identity = (*LocalBackend)(nil)

func NewLocalBackend(usrSvc user.Service) *LocalBackend {
	return &LocalBackend{usrSvc: usrSvc}
}

func (b *LocalBackend) SignIn(ctx context.Context, email, password string) (Account, error) {
	usr, err := b.usrSvc.Authenticate(ctx, email, password)
	if err != nil {
		return Account{}, err
	}
	acc := Account{UID: usr.ID, Email: usr.Email}
	b.mu.Lock()
	b.current = &acc
	b.mu.Unlock()
	return acc, nil
}

func (b *LocalBackend) SignOut(context.Context) error {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
	return nil
}

func (b *LocalBackend) CurrentAccount(context.Context) (Account, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Account{}, false, nil
	}
	return *b.current, true, nil
}

func (b *LocalBackend) Profile(ctx context.Context, uid string) (user.User, error) {
	usr, err := b.usrSvc.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrProfileNotFound
		}
		return user.User{}, err
	}
	if !usr.HasProfile() {
		return user.User{}, ErrProfileNotFound
	}
	return usr, nil
}

func (b *LocalBackend) CreateProfile(ctx context.Context, uid string, role user.Role, identifier string) (user.User, error) {
	if _, ok, _ := b.CurrentAccount(ctx); !ok {
		return user.User{}, ErrNoSession
	}
	return b.usrSvc.SetUpProfile(ctx, uid, role, identifier)
}
