package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tmbastos/escolar/core"
	"github.com/tmbastos/escolar/core/alert"
	"github.com/tmbastos/escolar/core/calendar"
	"github.com/tmbastos/escolar/core/evaluation"
	"github.com/tmbastos/escolar/core/report"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		CalendarSvc    *calendar.Service
		EvaluationSvc  *evaluation.Service
		Assembler      *report.Assembler
		Directory      report.Directory
		AlertScanner   *alert.Scanner
		Validate       *validator.Validate
		Translator     ut.Translator
		DBStatusCheck  func(context.Context) error // nil skips the DB probe
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/health", s.health)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf)))

	registerCalendarAPI(v1, calendarApi{svc: s.deps.CalendarSvc, validate: s.deps.Validate})
	registerEvaluationAPI(v1, evaluationApi{svc: s.deps.EvaluationSvc, validate: s.deps.Validate})
	registerReportAPI(v1, reportApi{
		assembler: s.deps.Assembler,
		directory: s.deps.Directory,
		svc:       s.deps.EvaluationSvc,
		validate:  s.deps.Validate,
	})
	registerAlertAPI(v1, alertApi{scanner: s.deps.AlertScanner, validate: s.deps.Validate})
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s.errs <- s.app.Start(s.deps.Conf.Server.Address())
	}()
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown is called by the error handler on unrecoverable errors.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Escolar API!")
}

// health reports readiness. A failed database round trip is unrecoverable;
// the shutdown error asks the app to stop so the orchestrator restarts it.
func (s *server) health(ctx echo.Context) error {
	if s.deps.DBStatusCheck != nil {
		if err := s.deps.DBStatusCheck(ctx.Request().Context()); err != nil {
			return core.NewShutdownError("database not ready: " + err.Error())
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
