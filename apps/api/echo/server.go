package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/evaluation"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/subject"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/core/user"
)

type (
	Deps struct {
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       *user.Service
		StudentSvc    *student.Service
		TeacherSvc    *teacher.Service
		SubjectSvc    *subject.Service
		AttendanceSvc *attendance.Service
		EvaluationSvc *evaluation.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		address string
		deps    *Deps
		auth    *Auth
		app     *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer sets up the API. signalShutdown is called when a handler fails with a shutdown error.
func NewServer(address string, signalShutdown func(), deps *Deps) Server {
	s := &server{
		address: address,
		deps:    deps,
		auth:    NewAuth(deps.Conf),
		app:     echo.New(),
	}
	s.setup(signalShutdown)
	return s
}

func (s *server) setup(signalShutdown func()) {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.Middleware()

	registerUserAPI(v1, jwt, s.auth, s.deps.UserSvc, s.deps.Validate)

	authed := v1.Group("", jwt, activeUserMiddleware(s.deps.UserSvc))
	registerStudentAPI(authed, s.deps.StudentSvc, s.deps.Validate)
	registerClassAPI(authed, s.deps.StudentSvc, s.deps.Validate)
	registerTeacherAPI(authed, s.deps.TeacherSvc, s.deps.Validate)
	registerSubjectAPI(authed, s.deps.SubjectSvc, s.deps.Validate)
	registerAttendanceAPI(authed, s.deps.AttendanceSvc, s.deps.Validate)
	registerEvaluationAPI(authed, s.deps.EvaluationSvc, s.deps.Validate)
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Gakuseki API!")
}
