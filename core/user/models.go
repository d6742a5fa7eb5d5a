package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gothwad/classesx/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

var AllRoles = []Role{RoleAdmin, RoleStudent, RoleParent}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Label is the lower-cased role name used in messages.
func (r Role) Label() string {
	return strings.ToLower(string(r))
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(core.CleanString(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"` // empty until the profile is set up
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	StudentID    string    `json:"student_id,omitempty"` // parents only: the child they follow
	ClassLevel   string    `json:"class_level,omitempty"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) HasProfile() bool { return u.Role != "" }
func (u User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u User) IsStudent() bool  { return u.Role == RoleStudent }
func (u User) IsParent() bool   { return u.Role == RoleParent }

// Follows reports whether u may see the records of the user identified by uid.
func (u User) Follows(uid string) bool {
	return u.ID == uid || u.IsAdmin() || (u.IsParent() && u.StudentID != "" && u.StudentID == uid)
}

// MemberID is the ID batch membership is checked against: parents see their child's batches.
func (u User) MemberID() string {
	if u.IsParent() {
		return u.StudentID
	}
	return u.ID
}

// DefaultProfileName is the name given to a profile created on first sign-in.
func DefaultProfileName(role Role, identifier string) string {
	if role == RoleAdmin {
		return "Admin User"
	}
	return "User " + identifier
}

// LoginEmail maps what the user typed on the login screen to the email their account is registered with.
// Admins type their email. Students and parents type their ID, which lives under a role specific domain.
func LoginEmail(role Role, identifier string, domains core.IdentityConfig) string {
	id := core.CleanString(identifier, true /* lower */)
	if role == RoleAdmin || strings.Contains(id, "@") {
		return id
	}
	domain := domains.StudentDomain
	if role == RoleParent {
		domain = domains.ParentDomain
	}
	return id + "@" + domain
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	StudentID       string `json:"student_id"`
	ClassLevel      string `json:"class_level" validate:"omitempty,classlevel"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.StudentID = core.CleanString(nu.StudentID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if nu.Role == RoleParent && nu.StudentID != "" {
		return svc.CheckStudentLink(nu.StudentID)
	}
	return nil
}

// UpdateUser defines what information an admin may provide to modify an existing User.
type UpdateUser struct {
	Name       string  `json:"name"`
	Phone      *string `json:"phone"`
	StudentID  *string `json:"student_id"`
	ClassLevel *string `json:"class_level" validate:"omitempty,classlevel"`
	IsActive   *bool   `json:"is_active"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uu.StudentID != nil {
		sid := core.CleanString(*uu.StudentID)
		uu.StudentID = &sid
	}
	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.StudentID != nil && *uu.StudentID != "" {
		if !origUsr.IsParent() {
			return core.NewFieldError("student_id", "only parents can follow a student")
		}
		return svc.CheckStudentLink(*uu.StudentID)
	}
	return nil
}

type UpdateName struct {
	Name string `json:"name" validate:"required"`
}

func (un *UpdateName) Validate(validate *validator.Validate) error {
	un.Name = core.CleanString(un.Name)
	return validate.Struct(un)
}

// UpdateEmail changes the login email. The current password is required.
type UpdateEmail struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ue *UpdateEmail) Validate(validate *validator.Validate) error {
	ue.Email = core.CleanString(ue.Email, true /* lower */)
	return validate.Struct(ue)
}

// UpdatePassword changes the password. The current password is required.
type UpdatePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	usr User // for similarity checks
}

func (up *UpdatePassword) Validate(usr User, validate *validator.Validate) error {
	up.usr = usr
	return validate.Struct(up)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search    string   `query:"search"`
	Roles     []Role   `query:"role"`
	IsActive  *bool    `query:"is_active"`
	StudentID string   `query:"student_id"`
	IDs       []string `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.StudentID == "" && qf.IDs == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.StudentID = core.CleanString(qf.StudentID)
	for i, r := range qf.Roles {
		qf.Roles[i] = Role(strings.ToUpper(core.CleanString(string(r))))
	}
}

// Matches applies the filter in memory. Search is a case-insensitive match on name, email or phone.
func (qf QueryFilter) Matches(u User) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(u.Name), s) ||
			strings.Contains(strings.ToLower(u.Email), s) ||
			strings.Contains(strings.ToLower(u.Phone), s)) {
			return false
		}
	}
	if qf.Roles != nil {
		var found bool
		for _, r := range qf.Roles {
			if u.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.IsActive != nil && u.IsActive != *qf.IsActive {
		return false
	}
	if qf.StudentID != "" && u.StudentID != qf.StudentID {
		return false
	}
	if qf.IDs != nil && !core.ContainsString(qf.IDs, u.ID) {
		return false
	}
	return true
}
