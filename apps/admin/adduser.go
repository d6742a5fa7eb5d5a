package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

type newAccount struct {
	name      string
	email     string
	role      user.Role
	phone     string
	studentID string
	password  string
}

// addUser updates or creates an active user. Students and parents may be given by the ID they sign in with.
func (cli *commandLine) addUser(acc newAccount) error {
	ctx := context.Background()
	email := user.LoginEmail(acc.role, acc.email, core.Conf.Identity)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email, CreatedAt: time.Now().UTC()}
	}
	if usr.HasProfile() && usr.Role != acc.role {
		return user.ErrRoleImmutable
	}

	if acc.role == user.RoleParent {
		if acc.studentID == "" {
			return errors.New("parents need -student")
		}
		stu, err := cli.usrRepo.GetUser(ctx, user.GetFilter{ID: acc.studentID})
		if err != nil || !stu.IsStudent() {
			return user.ErrStudentNotFound
		}
		usr.StudentID = stu.ID
	}

	usr.Name = core.CleanString(acc.name)
	usr.Role = acc.role
	if phone := core.CleanString(acc.phone); phone != "" {
		usr.Phone = phone
	}
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(acc.password); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}
