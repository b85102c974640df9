package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/overview"
	"github.com/Shin40411/Lms-client/core/role"
	"github.com/Shin40411/Lms-client/core/subject"
	"github.com/Shin40411/Lms-client/core/user"
	"github.com/Shin40411/Lms-client/services/notify"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
	}

	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		AuthSvc    auth.Service
		UserSvc    user.Service
		SubjectSvc subject.Service
		ClassSvc   classroom.Service
		Roles      role.Repository
		Overview   *overview.Service
		Activity   activity.Repository
		Views      *catalog.Views
		Notices    *notifysvc.Queues
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		deps     *Deps
		app      *echo.Echo
		shutdown chan<- error
	}
)

var _ Server = (*server)(nil)

// NewServer sets up the dashboard API. A server error that calls for a restart is sent
// on shutdown (may be nil).
func NewServer(opts *Options, shutdown chan<- error, deps *Deps) Server {
	s := &server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{conf.FrontendBaseURL},
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{
		middleware.JWTWithConfig(newJWTConfig(conf)),
		sessionMiddleware(s.deps.AuthSvc, s.deps.Views, s.deps.Notices),
	}

	registerAuthAPI(v1, authed, s.deps)
	registerDashboardAPI(v1.Group("", authed...), s.deps)
	registerClassAPI(v1.Group("/classes", authed...), s.deps)
	registerEditorAPI(v1.Group("/editors", authed...), s.deps)
	registerSubjectAPI(v1.Group("/subjects", authed...), s.deps)
	registerUserAPI(v1.Group("/users", authed...), s.deps)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		select {
		case s.shutdown <- core.NewShutdownError("integrity issue"):
		default:
		}
	}
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
