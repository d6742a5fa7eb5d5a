package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

// resetPassword sets a new password on the account registered under email.
// Deactivated accounts keep their status: reactivation goes through the API.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		return errors.Wrapf(err, "looking up %s", email)
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "saving user")
	}
	if !usr.IsActive {
		fmt.Printf("note: %s is deactivated and cannot sign in yet\n", email)
	}
	return nil
}
