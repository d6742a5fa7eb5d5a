// Package digcontainer wires the API with dig.
package digcontainer

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/gothwad/classesx/apps/api/echo"
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
	aisvc "github.com/gothwad/classesx/services/ai"
	emailsvc "github.com/gothwad/classesx/services/email"
	livesvc "github.com/gothwad/classesx/services/live"
	logsvc "github.com/gothwad/classesx/services/logger"
	"github.com/gothwad/classesx/storage/database"
	inmemdb "github.com/gothwad/classesx/storage/database/inmem"
	sqlxdb "github.com/gothwad/classesx/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage owns the connection behind the repositories.
type Storage struct {
	db *sqlx.DB
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type repositories struct {
	dig.Out

	Storage       *Storage
	Users         user.Repository
	Batches       batch.Repository
	Curriculum    curriculum.Repository
	Exams         exam.Repository
	Notifications notification.Repository
	Settings      settings.Repository
	Records       records.Store
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	Broker        live.Broker
	Users         user.Service
	Batches       batch.Service
	Curriculum    curriculum.Service
	Exams         exam.Service
	Notifications notification.Service
	Settings      settings.Service
	Records       records.Service
	Tutor         tutor.Service
	Backup        backup.Service
}

func newConfig() *core.Config {
	return core.Conf
}

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

func openPostgres(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*6)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newRepositories keeps everything in process memory when the database driver is "memory".
func newRepositories(conf *core.Config, loggerParam DBLoggerParam) repositories {
	logger := loggerParam.Logger
	if conf.Database.IsMemory() {
		logger.Warn("using in-memory storage: data is lost on restart")
		mem := inmemdb.Open()
		return repositories{
			Storage:       &Storage{},
			Users:         inmemdb.NewUserRepository(mem),
			Batches:       inmemdb.NewBatchRepository(mem),
			Curriculum:    inmemdb.NewCurriculumRepository(mem),
			Exams:         inmemdb.NewExamRepository(mem),
			Notifications: inmemdb.NewNotificationRepository(mem),
			Settings:      inmemdb.NewSettingsRepository(mem),
			Records:       inmemdb.NewRecordsRepository(mem),
		}
	}

	db, err := openPostgres(conf)
	if err != nil {
		logger.Fatal("setting up database", errors.Wrap(err, "setting up database"))
	}
	return repositories{
		Storage:       &Storage{db: db},
		Users:         sqlxdb.NewUserRepository(db),
		Batches:       sqlxdb.NewBatchRepository(db),
		Curriculum:    sqlxdb.NewCurriculumRepository(db),
		Exams:         sqlxdb.NewExamRepository(db),
		Notifications: sqlxdb.NewNotificationRepository(db),
		Settings:      sqlxdb.NewSettingsRepository(db),
		Records:       sqlxdb.NewRecordsRepository(db),
	}
}

func newBroker(conf *core.Config, logger core.Logger) live.Broker {
	if conf.Redis.Address == "" {
		return livesvc.NewMemoryBroker()
	}
	broker := livesvc.NewRedisBroker(livesvc.NewRedisClient(conf), logger)
	if err := broker.Ping(context.Background()); err != nil {
		logger.Fatal("connecting to redis", err)
	}
	return broker
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(logger)
	}
	return emailsvc.NewSendgridService(logger)
}

// newTutorModel answers with the connection error when Gemini is not configured.
func newTutorModel(conf *core.Config, logger core.Logger) tutor.Model {
	model, err := aisvc.NewGeminiModel(context.Background(), conf.Tutor)
	if err != nil {
		logger.Warn("tutor offline", err)
		return aisvc.Offline
	}
	return model
}

func newTutorService(conf *core.Config, model tutor.Model) tutor.Service {
	return tutor.NewService(model, conf.Tutor.SystemInstruction)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		Broker:          p.Broker,
		UserSvc:         p.Users,
		BatchSvc:        p.Batches,
		CurriculumSvc:   p.Curriculum,
		ExamSvc:         p.Exams,
		NotificationSvc: p.Notifications,
		SettingsSvc:     p.Settings,
		RecordsSvc:      p.Records,
		TutorSvc:        p.Tutor,
		BackupSvc:       p.Backup,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(func(s records.Store) records.Repository { return s }))
	must(c.Provide(func(r notification.Repository) backup.FeedReader { return r }))
	must(c.Provide(newBroker))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	must(c.Provide(user.NewService))
	must(c.Provide(batch.NewService))
	must(c.Provide(curriculum.NewService))
	must(c.Provide(exam.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(records.NewService))
	must(c.Provide(backup.NewService))
	must(c.Provide(newTutorModel))
	must(c.Provide(newTutorService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
