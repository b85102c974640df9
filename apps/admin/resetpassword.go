package main

import (
	"context"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/user"
)

// resetPassword sets the password of the user id; the rest of the user is submitted unchanged.
func (cli *commandLine) resetPassword(ctx context.Context, id, pwd string) error {
	usr, err := cli.userSvc.Get(ctx, id)
	if err != nil {
		return err
	}
	data := user.FormFromUser(usr)
	data.Password = pwd
	_, err = cli.userSvc.Save(ctx, id, data, core.NotifierFunc(cli.notify), nil)
	return err
}

func (cli *commandLine) notify(t core.Toast) {
	if t.Level == core.ToastError {
		cli.logger.Warn(t.Message)
		return
	}
	cli.logger.Info(t.Message)
}
