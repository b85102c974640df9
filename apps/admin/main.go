package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/user"
	logsvc "github.com/Shin40411/Lms-client/services/logger"
	"github.com/Shin40411/Lms-client/storage/database"
	inmemdb "github.com/Shin40411/Lms-client/storage/database/inmem"
	sqlxrepos "github.com/Shin40411/Lms-client/storage/database/sqlx"
	"github.com/Shin40411/Lms-client/storage/remote"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// set up DB
	var db *sql.DB
	var actRepo activity.Repository
	if conf.Database.Enabled() {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		xdb, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer xdb.Close()
		db = xdb.DB
		actRepo = sqlxrepos.NewActivityRepository(xdb)
	}

	// set up upstream
	client := remote.NewClient(conf)
	memDB := inmemdb.Open()

	// start CLI
	cli := commandLine{
		db:       db,
		authSvc:  auth.NewService(remote.NewAuthGateway(client), inmemdb.NewSessionStore(memDB), validate, conf),
		classSvc: classroom.NewService(remote.NewClassroomRepository(client), actRepo, logger),
		userSvc:  user.NewService(remote.NewUserRepository(client), actRepo, validate, logger),
		logger:   logger,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err))
		}
		os.Exit(1)
	}
}
