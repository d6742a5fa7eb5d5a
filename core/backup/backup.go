// Package backup exports the app data for admins.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

type Dump struct {
	GeneratedAt   time.Time                   `json:"generated_at"`
	Users         []user.User                 `json:"users"`
	Batches       []batch.Batch               `json:"batches"`
	Notifications []notification.Notification `json:"notifications"`
	Config        settings.Settings           `json:"config"`
}

// Filename is the name the dump is attached under.
func (d Dump) Filename() string {
	return "backup_" + d.GeneratedAt.Format("2006-01-02") + ".json"
}

// FeedReader reads the whole notification feed.
type FeedReader interface {
	QueryFeed(ctx context.Context, limit int) ([]notification.Notification, error)
}

type Service interface {
	Export(ctx context.Context, actor user.User) (Dump, error)
	Mail(ctx context.Context, actor user.User) (Dump, error)
}

type service struct {
	usrSvc      user.Service
	batchSvc    batch.Service
	feed        FeedReader
	settingsSvc settings.Service
	mailSvc     core.EmailService
}

var _ Service = (*service)(nil)

func NewService(usrSvc user.Service, batchSvc batch.Service, feed FeedReader, settingsSvc settings.Service, mailSvc core.EmailService) Service {
	return &service{
		usrSvc:      usrSvc,
		batchSvc:    batchSvc,
		feed:        feed,
		settingsSvc: settingsSvc,
		mailSvc:     mailSvc,
	}
}

func (svc *service) Export(ctx context.Context, actor user.User) (Dump, error) {
	if !actor.IsAdmin() {
		return Dump{}, core.ErrForbidden
	}
	var (
		d   = Dump{GeneratedAt: time.Now().UTC()}
		err error
	)
	if d.Users, err = svc.usrSvc.Query(ctx, user.QueryFilter{}, nil); err != nil {
		return Dump{}, errors.Wrap(err, "exporting users")
	}
	if d.Batches, err = svc.batchSvc.ListFor(ctx, actor); err != nil {
		return Dump{}, errors.Wrap(err, "exporting batches")
	}
	if d.Notifications, err = svc.feed.QueryFeed(ctx, 0); err != nil {
		return Dump{}, errors.Wrap(err, "exporting notifications")
	}
	if d.Config, err = svc.settingsSvc.Get(ctx); err != nil {
		return Dump{}, errors.Wrap(err, "exporting settings")
	}
	return d, nil
}

// Mail exports the data and emails it to actor as a JSON attachment.
func (svc *service) Mail(ctx context.Context, actor user.User) (Dump, error) {
	d, err := svc.Export(ctx, actor)
	if err != nil {
		return Dump{}, err
	}
	content, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return Dump{}, errors.Wrap(err, "encoding backup")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: actor.Name, Address: actor.Email}},
		Subject:      "Data Backup",
		TemplateName: "backup",
		TemplateData: map[string]interface{}{
			"Name":          actor.Name,
			"GeneratedAt":   d.GeneratedAt.Format(time.RFC1123),
			"Users":         len(d.Users),
			"Batches":       len(d.Batches),
			"Notifications": len(d.Notifications),
		},
	}
	if err = msg.Attach(bytes.NewReader(content), d.Filename(), "application/json"); err != nil {
		return Dump{}, errors.Wrap(err, "attaching backup")
	}
	svc.mailSvc.SendMessages(msg)
	return d, nil
}
