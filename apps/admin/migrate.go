package main

import (
	"errors"

	"github.com/Shin40411/Lms-client/storage/database"
)

var (
	runMigrationsFunc = database.RunMigrations // mockable

	errNoDatabase = errors.New("no database configured")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return runMigrationsFunc(cli.db, args[0], args[1:]...)
}
