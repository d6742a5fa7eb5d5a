package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/records"
)

type feeRow struct {
	UserID  string  `db:"user_id"`
	Total   float64 `db:"total"`
	Paid    float64 `db:"paid"`
	History []byte  `db:"history"`
}

type attendanceRow struct {
	UserID string `db:"user_id"`
	Date   string `db:"date"`
	Status string `db:"status"`
}

type recordsRepository struct {
	db *sqlx.DB
}

var _ records.Store = (*recordsRepository)(nil) // interface compliance check

func NewRecordsRepository(db *sqlx.DB) records.Store {
	return &recordsRepository{db: db}
}

func (repo *recordsRepository) GetFeeRecord(ctx context.Context, uid string) (records.FeeRecord, error) {
	var row feeRow
	err := repo.db.GetContext(ctx, &row, `SELECT user_id, total, paid, history FROM fee_records WHERE user_id = $1`, uid)
	if err != nil {
		if isNoRows(err) {
			return records.FeeRecord{}, records.ErrNotFound
		}
		return records.FeeRecord{}, errors.Wrap(mapErr(err), "selecting fee record")
	}
	rec := records.FeeRecord{UserID: row.UserID, Total: row.Total, Paid: row.Paid}
	if err = json.Unmarshal(row.History, &rec.History); err != nil {
		return records.FeeRecord{}, errors.Wrap(err, "decoding payment history")
	}
	return rec, nil
}

func (repo *recordsRepository) QueryAttendance(ctx context.Context, uid string) ([]records.AttendanceRecord, error) {
	var rows []attendanceRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT user_id, to_char(date, 'YYYY-MM-DD') AS date, status
		FROM attendance WHERE user_id = $1 ORDER BY date DESC`, uid)
	if err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting attendance")
	}
	recs := make([]records.AttendanceRecord, len(rows))
	for i, row := range rows {
		recs[i] = records.AttendanceRecord{UserID: row.UserID, Date: row.Date, Status: records.Status(row.Status)}
	}
	return recs, nil
}

func (repo *recordsRepository) PutFeeRecord(ctx context.Context, rec records.FeeRecord) error {
	history := rec.History
	if history == nil {
		history = []records.Payment{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return errors.Wrap(err, "encoding payment history")
	}
	_, err = repo.db.ExecContext(ctx, `INSERT INTO fee_records (user_id, total, paid, history) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET total = EXCLUDED.total, paid = EXCLUDED.paid, history = EXCLUDED.history`,
		rec.UserID, rec.Total, rec.Paid, data)
	return errors.Wrap(mapErr(err), "saving fee record")
}

// AddAttendance writes every record in one transaction.
func (repo *recordsRepository) AddAttendance(ctx context.Context, recs ...records.AttendanceRecord) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(mapErr(err), "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		_, err = tx.ExecContext(ctx, `INSERT INTO attendance (user_id, date, status) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, date) DO UPDATE SET status = EXCLUDED.status`,
			rec.UserID, rec.Date, string(rec.Status))
		if err != nil {
			return errors.Wrap(mapErr(err), "saving attendance")
		}
	}
	return errors.Wrap(tx.Commit(), "committing attendance")
}
