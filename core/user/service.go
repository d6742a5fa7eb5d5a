package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrRoleImmutable      = errors.New("role cannot be changed once set")
	ErrStudentNotFound    = errors.New("no student with this ID")
)

// RoleMismatchError is returned when an account signs in through the portal of another role.
type RoleMismatchError struct {
	Selected Role
	Actual   Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("This account is not registered as a %s.", e.Selected.Label())
}

// IsRoleMismatch reports whether the cause of err is a *RoleMismatchError.
func IsRoleMismatch(err error) bool {
	_, ok := errors.Cause(err).(*RoleMismatchError)
	return ok
}

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields. Newest first unless ordered.
		QueryUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		// UpdateUser saves every mutable field of usr. Returns ErrEmailExists when the new email is taken.
		UpdateUser(ctx context.Context, usr User) (User, error)
		// UpdateOrCreateUser matches on email.
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		SignIn(ctx context.Context, role Role, identifier, pwd string) (User, error)
		SetUpProfile(ctx context.Context, id string, role Role, identifier string) (User, error)
		LoginEmail(role Role, identifier string) string
		CheckStudentLink(studentID string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		UpdateName(ctx context.Context, usr User, un UpdateName) (User, error)
		UpdateEmail(ctx context.Context, usr User, ue UpdateEmail) (User, error)
		UpdatePassword(ctx context.Context, usr User, up UpdatePassword) (User, error)
		SetClassLevel(ctx context.Context, id, classLevel string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		domains  core.IdentityConfig
		// background runs work the request does not wait for.
		background func(func())
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate) Service {
	return &service{
		repo:       repo,
		mailSvc:    mailSvc,
		validate:   validate,
		domains:    core.Conf.Identity,
		background: func(f func()) { go f() },
	}
}

func (svc *service) LoginEmail(role Role, identifier string) string {
	return LoginEmail(role, identifier, svc.domains)
}

// Authenticate checks the credentials of an account, whatever its role.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return usr, nil
}

// SignIn authenticates through the portal of role.
// An account without a profile gets one for role. An account with another role is refused.
func (svc *service) SignIn(ctx context.Context, role Role, identifier, pwd string) (User, error) {
	if !role.Valid() {
		return User{}, core.NewFieldError("role", roleText)
	}
	usr, err := svc.Authenticate(ctx, svc.LoginEmail(role, identifier), pwd)
	if err != nil {
		return User{}, err
	}

	if !usr.HasProfile() {
		if usr, err = svc.SetUpProfile(ctx, usr.ID, role, identifier); err != nil {
			return User{}, errors.Wrap(err, "setting up profile")
		}
	} else if usr.Role != role {
		return User{}, &RoleMismatchError{Selected: role, Actual: usr.Role}
	}

	usr.LastLogin = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

// SetUpProfile gives an account without profile its role and defaults. The role is immutable afterwards.
func (svc *service) SetUpProfile(ctx context.Context, id string, role Role, identifier string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.HasProfile() {
		if usr.Role != role {
			return User{}, ErrRoleImmutable
		}
		return usr, nil
	}
	identifier = core.CleanString(identifier)
	usr.Role = role
	if usr.Name == "" {
		usr.Name = DefaultProfileName(role, identifier)
	}
	if usr.Phone == "" {
		usr.Phone = identifier
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) CheckStudentLink(studentID string) error {
	usr, err := svc.repo.GetUser(context.Background(), GetFilter{ID: studentID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewFieldError("student_id", ErrStudentNotFound.Error())
		}
		return err
	}
	if !usr.IsStudent() {
		return core.NewFieldError("student_id", ErrStudentNotFound.Error())
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:       nu.Name,
		Role:       nu.Role,
		Phone:      nu.Phone,
		Email:      nu.Email,
		ClassLevel: nu.ClassLevel,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nu.Role == RoleParent {
		usr.StudentID = nu.StudentID
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if errors.Cause(err) == ErrEmailExists {
		return User{}, core.NewFieldError("email", ErrEmailExists.Error())
	}
	return usr, err
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	if uu.Phone != nil {
		usr.Phone = core.CleanString(*uu.Phone)
	}
	if uu.StudentID != nil {
		usr.StudentID = *uu.StudentID
	}
	if uu.ClassLevel != nil {
		usr.ClassLevel = *uu.ClassLevel
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) UpdateName(ctx context.Context, usr User, un UpdateName) (User, error) {
	if err := un.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr.Name = un.Name
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateEmail re-authenticates with the current password before changing the login email.
func (svc *service) UpdateEmail(ctx context.Context, usr User, ue UpdateEmail) (User, error) {
	if err := ue.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(ue.Password); err != nil {
		return User{}, core.NewFieldError("password", "incorrect password")
	}
	usr.Email = ue.Email
	usr.UpdatedAt = time.Now().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if errors.Cause(err) == ErrEmailExists {
		return User{}, core.NewFieldError("email", ErrEmailExists.Error())
	}
	return usr, err
}

// UpdatePassword re-authenticates with the current password before changing it.
func (svc *service) UpdatePassword(ctx context.Context, usr User, up UpdatePassword) (User, error) {
	if err := up.Validate(usr, svc.validate); err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(up.CurrentPassword); err != nil {
		return User{}, core.NewFieldError("current_password", "incorrect password")
	}
	if err := usr.SetPassword(up.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetClassLevel(ctx context.Context, id, classLevel string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.ClassLevel = classLevel
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.background(func() { svc.sendPasswordResetMail(usr) })
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	if err := rp.Validate(svc.validate); err != nil {
		return err
	}
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
