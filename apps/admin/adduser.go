package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

var errInvalidLevel = errors.New("level must be one of Primary, Secondary or Tertiary")

// addUser updates or creates a user.User; it is the only way to create an admin.
func (cli *commandLine) addUser(uname, email, pwd string, lvl core.EducationLevel, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	if !lvl.Valid() {
		return errInvalidLevel
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	exists := err == nil
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{Username: uname, CreatedAt: time.Now().UTC()}
	}
	usr.Email = email
	usr.EducationLevel = lvl
	usr.Role = user.RoleTeacher
	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
