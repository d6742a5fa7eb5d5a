package notification

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

const (
	msgIndexUnavailable = "A database index is being built or is missing. Please try again in a few minutes."
	msgLoadFailed       = "Failed to load notifications."
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryFeed returns the latest notifications newest first. limit <= 0 returns them all.
		QueryFeed(ctx context.Context, limit int) ([]Notification, error)
		// QuerySent returns up to limit notifications sent by senderUID in no particular order.
		// Implementations must not order the query: ordering on top of the sender filter needs a composite
		// index the store may not have. Callers sort with SortNewestFirst.
		QuerySent(ctx context.Context, senderUID string, limit int) ([]Notification, error)
	}

	Service interface {
		Send(ctx context.Context, sender user.User, c Compose) (Notification, error)
		Inbox(ctx context.Context) ([]Notification, error)
		Outbox(ctx context.Context, sender user.User) ([]Notification, error)
		WatchInbox(ctx context.Context, deliver func([]Notification, error)) (*live.Watcher, error)
		WatchOutbox(ctx context.Context, sender user.User, deliver func([]Notification, error)) (*live.Watcher, error)
	}

	service struct {
		repo     Repository
		batchSvc batch.Service
		broker   live.Broker
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batchSvc batch.Service, broker live.Broker, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		repo:     repo,
		batchSvc: batchSvc,
		broker:   broker,
		validate: validate,
		logger:   logger,
	}
}

// FeedErrorMessage is the message shown when a feed fails to load.
func FeedErrorMessage(err error) string {
	if core.IsIndexUnavailable(err) {
		return msgIndexUnavailable
	}
	return msgLoadFailed
}

// Send stores a notification from sender. The target batch name is snapshotted at write time.
func (svc *service) Send(ctx context.Context, sender user.User, c Compose) (Notification, error) {
	if !sender.IsAdmin() {
		return Notification{}, core.ErrForbidden
	}
	if err := c.Validate(svc.validate); err != nil {
		return Notification{}, err
	}

	n := Notification{
		Title:           c.Title,
		Message:         c.Message,
		Type:            c.Type,
		SenderName:      sender.Name,
		SenderUID:       sender.ID,
		TargetType:      c.TargetType,
		TargetBatchName: AllStudentsName,
		Timestamp:       time.Now().UTC(),
	}
	if c.TargetType == TargetBatch {
		b, err := svc.batchSvc.Get(ctx, c.TargetBatchID)
		if err != nil {
			if errors.Cause(err) == batch.ErrNotFound {
				return Notification{}, core.NewFieldError("target_batch_id", "Please select a target batch.")
			}
			return Notification{}, errors.Wrap(err, "finding batch")
		}
		n.TargetBatchID = b.ID
		n.TargetBatchName = b.Name
	}

	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	if err = svc.broker.Publish(ctx, live.TopicNotifications); err != nil {
		svc.logger.Warn("publishing notification", err)
	}
	return n, nil
}

// Inbox is the global feed: the latest notifications, newest first.
func (svc *service) Inbox(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryFeed(ctx, InboxLimit)
}

// Outbox is what sender sent, newest first.
func (svc *service) Outbox(ctx context.Context, sender user.User) ([]Notification, error) {
	items, err := svc.repo.QuerySent(ctx, sender.ID, OutboxLimit)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(items)
	return items, nil
}

func (svc *service) WatchInbox(ctx context.Context, deliver func([]Notification, error)) (*live.Watcher, error) {
	return live.Watch(ctx, svc.broker, func(ctx context.Context) {
		items, err := svc.Inbox(ctx)
		if ctx.Err() != nil {
			return
		}
		deliver(items, err)
	}, live.TopicNotifications)
}

func (svc *service) WatchOutbox(ctx context.Context, sender user.User, deliver func([]Notification, error)) (*live.Watcher, error) {
	return live.Watch(ctx, svc.broker, func(ctx context.Context) {
		items, err := svc.Outbox(ctx, sender)
		if ctx.Err() != nil {
			return
		}
		deliver(items, err)
	}, live.TopicNotifications)
}
