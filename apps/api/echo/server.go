// Package echoapi serves the ClassesX JSON API with echo.
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

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/backup"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/exam"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/tutor"
	"github.com/gothwad/classesx/core/user"
)

// ServerDeps are what the API handlers are built on.
type ServerDeps struct {
	Conf           *core.Config
	Logger         core.Logger
	Validate       *validator.Validate
	Translator     ut.Translator
	Broker         live.Broker
	DisableReqLogs bool

	UserSvc         user.Service
	BatchSvc        batch.Service
	CurriculumSvc   curriculum.Service
	ExamSvc         exam.Service
	NotificationSvc notification.Service
	SettingsSvc     settings.Service
	RecordsSvc      records.Service
	TutorSvc        tutor.Service
	BackupSvc       backup.Service
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	metrics  *metrics
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(s.metrics.middleware)
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowedOrigins}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/metrics", s.metrics.handler())

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	authed := v1.Group("", jwt, maintenanceMiddleware(s.deps.UserSvc, s.deps.SettingsSvc))
	admin := adminMiddleware(s.deps.UserSvc)

	registerUserAPI(v1, authed, admin, s.deps)
	registerBatchAPI(authed, admin, s.deps)
	registerCurriculumAPI(authed, s.deps)
	registerExamAPI(authed, s.deps)
	registerNotificationAPI(authed, admin, s.deps)
	registerSettingsAPI(v1, authed, s.deps)
	registerRecordsAPI(authed, s.deps)
	registerTutorAPI(authed, s.deps)
	registerBackupAPI(authed, admin, s.deps)
	registerLiveAPI(v1, s.deps)
}

// Start blocks until the server stops. Errors other than a clean shutdown are sent on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
