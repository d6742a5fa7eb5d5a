package inmemdb

import (
	"context"
	"sort"

	"github.com/gothwad/classesx/core/records"
)

type recordsRepository struct {
	db *recordsTable
}

var _ records.Store = (*recordsRepository)(nil) // interface compliance check

func NewRecordsRepository(db *DB) records.Store {
	return &recordsRepository{db: db.records}
}

func (repo *recordsRepository) GetFeeRecord(_ context.Context, uid string) (records.FeeRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rec, ok := repo.db.fees[uid]
	if !ok {
		return records.FeeRecord{}, records.ErrNotFound
	}
	rec.History = append([]records.Payment{}, rec.History...)
	return rec, nil
}

func (repo *recordsRepository) QueryAttendance(_ context.Context, uid string) ([]records.AttendanceRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := append([]records.AttendanceRecord{}, repo.db.attendance[uid]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date > recs[j].Date })
	return recs, nil
}

func (repo *recordsRepository) PutFeeRecord(_ context.Context, rec records.FeeRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.History = append([]records.Payment{}, rec.History...)
	repo.db.fees[rec.UserID] = rec
	return nil
}

func (repo *recordsRepository) AddAttendance(_ context.Context, recs ...records.AttendanceRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range recs {
		list := repo.db.attendance[rec.UserID]
		replaced := false
		for i := range list {
			if list[i].Date == rec.Date {
				list[i] = rec
				replaced = true
			}
		}
		if !replaced {
			list = append(list, rec)
		}
		repo.db.attendance[rec.UserID] = list
	}
	return nil
}
