// Package settings holds the global branding and maintenance settings of the app.
package settings

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

var ErrNotFound = errors.New("settings not found")

type Settings struct {
	AppName          string `json:"app_name"`
	LogoEmoji        string `json:"logo_emoji"`
	PrimaryColor     string `json:"primary_color"`
	BackgroundColor  string `json:"background_color"`
	UnderMaintenance bool   `json:"under_maintenance"`
}

// Defaults are the settings in use until an admin saves some.
func Defaults() Settings {
	return Settings{
		AppName:         "CLASSES X",
		LogoEmoji:       "X",
		PrimaryColor:    "#2563eb",
		BackgroundColor: "#f8fafc",
	}
}

// Update is what an admin may change. Empty values keep the current ones.
type Update struct {
	AppName         string `json:"app_name"`
	LogoEmoji       string `json:"logo_emoji"`
	PrimaryColor    string `json:"primary_color" validate:"omitempty,hexcolor"`
	BackgroundColor string `json:"background_color" validate:"omitempty,hexcolor"`
}

func (u *Update) Validate(validate *validator.Validate) error {
	u.AppName = strings.ToUpper(core.CleanString(u.AppName))
	u.LogoEmoji = core.CleanString(u.LogoEmoji)
	u.PrimaryColor = core.CleanString(u.PrimaryColor, true /* lower */)
	u.BackgroundColor = core.CleanString(u.BackgroundColor, true /* lower */)
	return validate.Struct(u)
}

func (u Update) applyTo(s Settings) Settings {
	if u.AppName != "" {
		s.AppName = u.AppName
	}
	if u.LogoEmoji != "" {
		s.LogoEmoji = u.LogoEmoji
	}
	if u.PrimaryColor != "" {
		s.PrimaryColor = u.PrimaryColor
	}
	if u.BackgroundColor != "" {
		s.BackgroundColor = u.BackgroundColor
	}
	return s
}

type (
	Repository interface {
		// GetSettings returns ErrNotFound until settings are saved once.
		GetSettings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) (Settings, error)
	}

	Service interface {
		Get(ctx context.Context) (Settings, error)
		Update(ctx context.Context, actor user.User, u Update) (Settings, error)
		SetMaintenance(ctx context.Context, actor user.User, on bool) (Settings, error)
		Watch(ctx context.Context, deliver func(Settings, error)) (*live.Watcher, error)
	}

	service struct {
		repo     Repository
		broker   live.Broker
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, broker live.Broker, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		repo:     repo,
		broker:   broker,
		validate: validate,
		logger:   logger,
	}
}

func (svc *service) Get(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetSettings(ctx)
	if errors.Cause(err) == ErrNotFound {
		return Defaults(), nil
	}
	return s, err
}

func (svc *service) save(ctx context.Context, s Settings) (Settings, error) {
	s, err := svc.repo.SaveSettings(ctx, s)
	if err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	if err = svc.broker.Publish(ctx, live.TopicSettings); err != nil {
		svc.logger.Warn("publishing settings change", err)
	}
	return s, nil
}

func (svc *service) Update(ctx context.Context, actor user.User, u Update) (Settings, error) {
	if !actor.IsAdmin() {
		return Settings{}, core.ErrForbidden
	}
	if err := u.Validate(svc.validate); err != nil {
		return Settings{}, err
	}
	curr, err := svc.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	return svc.save(ctx, u.applyTo(curr))
}

func (svc *service) SetMaintenance(ctx context.Context, actor user.User, on bool) (Settings, error) {
	if !actor.IsAdmin() {
		return Settings{}, core.ErrForbidden
	}
	curr, err := svc.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	curr.UnderMaintenance = on
	return svc.save(ctx, curr)
}

// Watch delivers the settings now and after every change.
func (svc *service) Watch(ctx context.Context, deliver func(Settings, error)) (*live.Watcher, error) {
	return live.Watch(ctx, svc.broker, func(ctx context.Context) {
		s, err := svc.Get(ctx)
		if ctx.Err() != nil {
			return
		}
		deliver(s, err)
	}, live.TopicSettings)
}
