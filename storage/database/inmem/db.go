// Package inmemdb keeps every repository in process memory. Data does not survive a restart.
package inmemdb

import (
	"sync"

	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/exam"
	"github.com/gothwad/classesx/core/notification"
	"github.com/gothwad/classesx/core/records"
	"github.com/gothwad/classesx/core/settings"
	"github.com/gothwad/classesx/core/user"
)

type (
	DB struct {
		user         *userTable
		batch        *batchTable
		chapter      *chapterTable
		lecture      *lectureTable
		test         *testTable
		notification *notificationTable
		settings     *settingsTable
		records      *recordsTable
	}

	// rows remember their insertion order, which breaks ties between equal timestamps
	userRow struct {
		seq int
		usr user.User
	}
	userTable struct {
		sync.RWMutex
		seq   int
		table map[string]*userRow
	}

	batchRow struct {
		seq int
		b   batch.Batch
	}
	batchTable struct {
		sync.RWMutex
		seq   int
		table map[string]*batchRow
	}

	chapterRow struct {
		seq int
		ch  curriculum.Chapter
	}
	chapterTable struct {
		sync.RWMutex
		seq   int
		table map[string]*chapterRow
	}

	lectureRow struct {
		seq int
		l   curriculum.Lecture
	}
	lectureTable struct {
		sync.RWMutex
		seq   int
		table map[string]*lectureRow
	}

	testRow struct {
		seq int
		t   exam.Test
	}
	testTable struct {
		sync.RWMutex
		seq   int
		table map[string]*testRow
	}

	notificationRow struct {
		seq int
		n   notification.Notification
	}
	notificationTable struct {
		sync.RWMutex
		seq           int
		table         map[string]*notificationRow
		indexBuilding bool
	}

	settingsTable struct {
		sync.RWMutex
		s *settings.Settings
	}

	recordsTable struct {
		sync.RWMutex
		fees       map[string]records.FeeRecord
		attendance map[string][]records.AttendanceRecord
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*userRow)},
		batch:        &batchTable{table: make(map[string]*batchRow)},
		chapter:      &chapterTable{table: make(map[string]*chapterRow)},
		lecture:      &lectureTable{table: make(map[string]*lectureRow)},
		test:         &testTable{table: make(map[string]*testRow)},
		notification: &notificationTable{table: make(map[string]*notificationRow)},
		settings:     &settingsTable{},
		records: &recordsTable{
			fees:       make(map[string]records.FeeRecord),
			attendance: make(map[string][]records.AttendanceRecord),
		},
	}
}

// SetIndexBuilding makes the notification feed queries fail with core.ErrIndexUnavailable while on is set.
func (db *DB) SetIndexBuilding(on bool) {
	db.notification.Lock()
	db.notification.indexBuilding = on
	db.notification.Unlock()
}
