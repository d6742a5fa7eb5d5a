// Package testutil wires the app on in-memory storage for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/backup"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/exam"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/tutor"
	"github.com/gothwad/classesx/core/user"
	emailsvc "github.com/gothwad/classesx/services/email"
	livesvc "github.com/gothwad/classesx/services/live"
	logsvc "github.com/gothwad/classesx/services/logger"
	inmemdb "github.com/gothwad/classesx/storage/database/inmem"
)

// NewValidator returns a validator with every custom tag of the app registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	return validate
}

// NewLogger returns a logger that prints nowhere and reports nothing.
func NewLogger() core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST", TestMode: true})
	l.Enable(false)
	return l
}

// Env is the whole app on in-memory storage. Services send their mails synchronously.
type Env struct {
	DB       *inmemdb.DB
	Broker   *livesvc.MemoryBroker
	Mail     *emailsvc.ConsoleServiceMock
	Logger   core.Logger
	Validate *validator.Validate

	UserRepo    user.Repository
	RecordStore records.Store

	Users         user.Service
	Batches       batch.Service
	Curriculum    curriculum.Service
	Exams         exam.Service
	Notifications notification.Service
	Settings      settings.Service
	Records       records.Service
	Backup        backup.Service
	Tutor         tutor.Service
}

// NewEnv wires a fresh Env. model answers the tutor questions; nil echoes them back.
func NewEnv(model tutor.Model) *Env {
	if model == nil {
		model = tutor.ModelFunc(func(_ context.Context, _, prompt string) (string, error) { return prompt, nil })
	}
	env := &Env{
		DB:       inmemdb.Open(),
		Broker:   livesvc.NewMemoryBroker(),
		Logger:   NewLogger(),
		Validate: NewValidator(),
	}
	env.Mail = emailsvc.NewConsoleServiceMock(env.Logger)
	env.UserRepo = inmemdb.NewUserRepository(env.DB)
	env.RecordStore = inmemdb.NewRecordsRepository(env.DB)
	notifRepo := inmemdb.NewNotificationRepository(env.DB)

	env.Users = user.NewServiceMock(env.UserRepo, env.Mail, env.Validate)
	env.Batches = batch.NewService(inmemdb.NewBatchRepository(env.DB), env.Users, env.Broker, env.Validate, env.Logger)
	env.Curriculum = curriculum.NewService(inmemdb.NewCurriculumRepository(env.DB), env.Batches, env.Broker, env.Logger)
	env.Exams = exam.NewService(inmemdb.NewExamRepository(env.DB), env.Batches, env.Broker, env.Validate, env.Logger)
	env.Notifications = notification.NewService(notifRepo, env.Batches, env.Broker, env.Validate, env.Logger)
	env.Settings = settings.NewService(inmemdb.NewSettingsRepository(env.DB), env.Broker, env.Validate, env.Logger)
	env.Records = records.NewService(env.RecordStore)
	env.Backup = backup.NewService(env.Users, env.Batches, notifRepo, env.Settings, env.Mail)
	env.Tutor = tutor.NewService(model, core.Conf.Tutor.SystemInstruction)
	return env
}

// CreateUser stores a user straight through repo. An empty pwd leaves the account without a password.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateBatch creates a batch through the service as admin.
func CreateBatch(t *testing.T, svc batch.Service, admin user.User, name string, subjects ...string) batch.Batch {
	t.Helper()
	b, err := svc.Create(context.Background(), admin, batch.NewBatch{
		Name:       name,
		ClassLevel: "12th",
		Instructor: "Dr. Rao",
		Subjects:   subjects,
	})
	if err != nil {
		t.Fatalf("CreateBatch() failed: %v", err)
	}
	return b
}
