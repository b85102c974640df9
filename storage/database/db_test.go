package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMigrations(t *testing.T) {
	defer func(f func(string, *sql.DB, string, ...string) error) { gooseRunFunc = f }(gooseRunFunc)

	var got []string
	gooseRunFunc = func(command string, _ *sql.DB, dir string, args ...string) error {
		got = append([]string{command, dir}, args...)
		return nil
	}
	assert.NoError(t, RunMigrations(nil, "down-to", "1"))
	assert.Equal(t, []string{"down-to", "migrations", "1"}, got)

	assert.NoError(t, Migrate(nil))
	assert.Equal(t, []string{"up", "migrations"}, got)

	gooseRunFunc = func(string, *sql.DB, string, ...string) error { return errors.New("no such migration") }
	assert.EqualError(t, RunMigrations(nil, "up-to", "9"), "running migrations up-to: no such migration")
}
