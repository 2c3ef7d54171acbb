package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/gakuseki/gakuseki/apps/api/echo"
	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/attendance"
	"github.com/gakuseki/gakuseki/core/evaluation"
	"github.com/gakuseki/gakuseki/core/student"
	"github.com/gakuseki/gakuseki/core/subject"
	"github.com/gakuseki/gakuseki/core/teacher"
	"github.com/gakuseki/gakuseki/core/user"
	logsvc "github.com/gakuseki/gakuseki/services/logger"
	"github.com/gakuseki/gakuseki/storage"
)

type (
	// Shutdown receives the OS signals (and the signals of the API server) asking the app to stop.
	Shutdown chan os.Signal

	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// StoreCloser releases the connections of the configured store.
	StoreCloser io.Closer

	serverParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Shutdown      Shutdown
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       *user.Service
		StudentSvc    *student.Service
		TeacherSvc    *teacher.Service
		SubjectSvc    *subject.Service
		AttendanceSvc *attendance.Service
		EvaluationSvc *evaluation.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newStore opens the store selected by conf.Storage.Driver.
func newStore(conf *core.Config, loggerParam DBLoggerParam) (core.Store, StoreCloser) {
	store, closer, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Storage.Driver, err), err)
	}
	loggerParam.Logger.Info("store ready", map[string]interface{}{"driver": conf.Storage.Driver})
	return store, closer
}

// newValidator sets up the validator with the translations of every request validation.
func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newShutdown() Shutdown {
	shutdown := make(Shutdown, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(p serverParams) echoapi.Server {
	signalShutdown := func() {
		select {
		case p.Shutdown <- syscall.SIGTERM:
		default: // already shutting down
		}
	}
	return echoapi.NewServer(p.Conf.Server.Host, signalShutdown, &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		StudentSvc:    p.StudentSvc,
		TeacherSvc:    p.TeacherSvc,
		SubjectSvc:    p.SubjectSvc,
		AttendanceSvc: p.AttendanceSvc,
		EvaluationSvc: p.EvaluationSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newValidator))
	must(c.Provide(newShutdown))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(subject.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(func(store core.Store, teachers *teacher.Service, att *attendance.Service) *student.Service {
		return student.NewService(store, teachers, att)
	}))
	must(c.Provide(func(store core.Store, subjects *subject.Service, students *student.Service, att *attendance.Service) *evaluation.Service {
		return evaluation.NewService(store, subjects, students, att)
	}))

	must(c.Provide(newServer))
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
