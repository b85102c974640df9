package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/Shin40411/Lms-client/apps/api/echo"
	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/overview"
	"github.com/Shin40411/Lms-client/core/subject"
	"github.com/Shin40411/Lms-client/core/user"
	appfs "github.com/Shin40411/Lms-client/fs"
	emailsvc "github.com/Shin40411/Lms-client/services/email"
	logsvc "github.com/Shin40411/Lms-client/services/logger"
	notifysvc "github.com/Shin40411/Lms-client/services/notify"
	"github.com/Shin40411/Lms-client/storage/database"
	inmemdb "github.com/Shin40411/Lms-client/storage/database/inmem"
	sqlxrepos "github.com/Shin40411/Lms-client/storage/database/sqlx"
	redisstore "github.com/Shin40411/Lms-client/storage/redis"
	"github.com/Shin40411/Lms-client/storage/remote"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	classroom.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	// set up storage
	memDB := inmemdb.Open()
	actRepo := inmemdb.NewActivityRepository(memDB)
	if conf.Database.Enabled() {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		actRepo = sqlxrepos.NewActivityRepository(db)
	}

	sessions := inmemdb.NewSessionStore(memDB)
	if conf.Redis.Address != "" {
		rdb, err := redisstore.Open(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer func() { _ = rdb.Close() }()
		sessions = redisstore.NewSessionStore(rdb)
	}

	client := remote.NewClient(conf)
	classRepo := remote.NewClassroomRepository(client)
	userRepo := remote.NewUserRepository(client)
	subjectRepo := remote.NewSubjectRepository(client)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	var rosterNotices classroom.RosterNotifier
	if conf.RosterNotices {
		rosterNotices = classroom.NewMailNotices(mailSvc, classRepo, logger)
	}

	authSvc := auth.NewService(remote.NewAuthGateway(client), sessions, validate, conf)
	userSvc := user.NewService(userRepo, actRepo, validate, logger)
	classSvc := classroom.NewService(classRepo, actRepo, logger)
	notices := notifysvc.NewQueues(logger)
	views := catalog.NewViews(catalog.ViewDeps{
		Classes: classSvc,
		Editor: classroom.EditorDeps{
			Classes:  classRepo,
			Members:  userSvc,
			Validate: validate,
			Activity: actRepo,
			Notices:  rosterNotices,
			Logger:   logger,
		},
		Notifier: notices.For,
		Logger:   logger,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("sessions", expvar.Func(func() interface{} { return views.Len() }))

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	shutdown := make(chan error, 1)
	server := echoapi.NewServer(
		&echoapi.Options{Address: conf.Server.Address},
		shutdown,
		&echoapi.Deps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			AuthSvc:    authSvc,
			UserSvc:    userSvc,
			SubjectSvc: subject.NewService(subjectRepo, actRepo, validate, logger),
			ClassSvc:   classSvc,
			Roles:      remote.NewRoleRepository(client),
			Overview:   overview.NewService(classRepo, subjectRepo, userRepo, actRepo, logger),
			Activity:   actRepo,
			Views:      views,
			Notices:    notices,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case err := <-shutdown:
		logger.Error(fmt.Sprintf("%v: Start shutdown...", err), err)
		stop(server, mailSvc, conf, logger)

	case sig := <-signals:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stop(server, mailSvc, conf, logger)
	}
}

// stop gives outstanding requests a deadline for completion, then waits for the emails
// still being sent.
func stop(server echoapi.Server, mailSvc core.EmailService, conf *core.Config, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
