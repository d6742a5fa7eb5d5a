package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gothwad/classesx/core/notification"
)

const notificationColumns = `id, title, message, type, sender_name, sender_uid, target_type, target_batch_id,
	target_batch_name, "timestamp"`

type notificationRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	Message         string      `db:"message"`
	Type            string      `db:"type"`
	SenderName      string      `db:"sender_name"`
	SenderUID       string      `db:"sender_uid"`
	TargetType      string      `db:"target_type"`
	TargetBatchID   null.String `db:"target_batch_id"`
	TargetBatchName string      `db:"target_batch_name"`
	Timestamp       time.Time   `db:"timestamp"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:              r.ID,
		Title:           r.Title,
		Message:         r.Message,
		Type:            notification.Type(r.Type),
		SenderName:      r.SenderName,
		SenderUID:       r.SenderUID,
		TargetType:      notification.Target(r.TargetType),
		TargetBatchID:   r.TargetBatchID.String,
		TargetBatchName: r.TargetBatchName,
		Timestamp:       r.Timestamp.UTC(),
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx, `INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.Title, n.Message, string(n.Type), n.SenderName, n.SenderUID, string(n.TargetType),
		optString(n.TargetBatchID), n.TargetBatchName, n.Timestamp)
	if err != nil {
		return notification.Notification{}, errors.Wrap(mapErr(err), "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) query(ctx context.Context, q string, args ...interface{}) ([]notification.Notification, error) {
	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, mapErr(err)
	}
	items := make([]notification.Notification, len(rows))
	for i, row := range rows {
		items[i] = row.toNotification()
	}
	return items, nil
}

func (repo *notificationRepository) QueryFeed(ctx context.Context, limit int) ([]notification.Notification, error) {
	var w where
	q := w.build(`SELECT `+notificationColumns+` FROM notifications`, ` ORDER BY "timestamp" DESC`, limit)
	items, err := repo.query(ctx, q, w.args...)
	return items, errors.Wrap(mapErr(err), "selecting feed")
}

// QuerySent filters on the sender only. There is no ORDER BY on purpose: callers sort.
func (repo *notificationRepository) QuerySent(ctx context.Context, senderUID string, limit int) ([]notification.Notification, error) {
	var w where
	w.add("sender_uid = ?", senderUID)
	q := w.build(`SELECT `+notificationColumns+` FROM notifications`, "", limit)
	items, err := repo.query(ctx, q, w.args...)
	return items, errors.Wrap(mapErr(err), "selecting sent notifications")
}
