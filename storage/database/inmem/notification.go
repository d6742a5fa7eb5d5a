package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	repo.db.seq++
	repo.db.table[n.ID] = &notificationRow{seq: repo.db.seq, n: n}
	return n, nil
}

func (repo *notificationRepository) QueryFeed(_ context.Context, limit int) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.indexBuilding {
		return nil, core.ErrIndexUnavailable
	}
	rows := make([]*notificationRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].n.Timestamp.Equal(rows[j].n.Timestamp) {
			return rows[i].n.Timestamp.After(rows[j].n.Timestamp)
		}
		return rows[i].seq > rows[j].seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	items := make([]notification.Notification, len(rows))
	for i, row := range rows {
		items[i] = row.n
	}
	return items, nil
}

// QuerySent walks the map, so the order of the result is unspecified, as the contract allows.
func (repo *notificationRepository) QuerySent(_ context.Context, senderUID string, limit int) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]notification.Notification, 0)
	for _, row := range repo.db.table {
		if limit > 0 && len(items) == limit {
			break
		}
		if row.n.SenderUID == senderUID {
			items = append(items, row.n)
		}
	}
	return items, nil
}
