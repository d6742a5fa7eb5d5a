package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gothwad/classesx/core/batch"
)

const batchColumns = `id, name, class_level, instructor, subjects, student_ids, thumbnail_color, created_at`

type batchRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	ClassLevel     string         `db:"class_level"`
	Instructor     string         `db:"instructor"`
	Subjects       pq.StringArray `db:"subjects"`
	StudentIDs     pq.StringArray `db:"student_ids"`
	ThumbnailColor null.String    `db:"thumbnail_color"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r batchRow) toBatch() batch.Batch {
	return batch.Batch{
		ID:             r.ID,
		Name:           r.Name,
		ClassLevel:     r.ClassLevel,
		Instructor:     r.Instructor,
		Subjects:       append([]string{}, r.Subjects...),
		StudentIDs:     append([]string{}, r.StudentIDs...),
		ThumbnailColor: r.ThumbnailColor.String,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

type batchRepository struct {
	db *sqlx.DB
}

var _ batch.Repository = (*batchRepository)(nil) // interface compliance check

func NewBatchRepository(db *sqlx.DB) batch.Repository {
	return &batchRepository{db: db}
}

func (repo *batchRepository) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	row := batchRow{
		ID:             b.ID,
		Name:           b.Name,
		ClassLevel:     b.ClassLevel,
		Instructor:     b.Instructor,
		Subjects:       pq.StringArray(append([]string{}, b.Subjects...)),
		StudentIDs:     pq.StringArray(append([]string{}, b.StudentIDs...)),
		ThumbnailColor: null.NewString(b.ThumbnailColor, b.ThumbnailColor != ""),
		CreatedAt:      b.CreatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO batches (`+batchColumns+`) VALUES (
		:id, :name, :class_level, :instructor, :subjects, :student_ids, :thumbnail_color, :created_at)`, row)
	if err != nil {
		return batch.Batch{}, errors.Wrap(mapErr(err), "inserting batch")
	}
	return row.toBatch(), nil
}

func (repo *batchRepository) GetBatch(ctx context.Context, id string) (batch.Batch, error) {
	var row batchRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return batch.Batch{}, batch.ErrNotFound
		}
		return batch.Batch{}, errors.Wrap(mapErr(err), "selecting batch")
	}
	return row.toBatch(), nil
}

func (repo *batchRepository) QueryBatches(ctx context.Context, filter batch.QueryFilter) ([]batch.Batch, error) {
	var w where
	if filter.MemberID != "" {
		w.add("? = ANY(student_ids)", filter.MemberID)
	}
	order := ` ORDER BY created_at DESC`
	if filter.Search != "" {
		w.add("name ILIKE ?", likePrefix(filter.Search))
		order = ` ORDER BY name, created_at DESC`
	}
	var rows []batchRow
	q := w.build(`SELECT `+batchColumns+` FROM batches`, order, filter.Limit)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting batches")
	}
	batches := make([]batch.Batch, len(rows))
	for i, row := range rows {
		batches[i] = row.toBatch()
	}
	return batches, nil
}

func (repo *batchRepository) updateMembers(ctx context.Context, set, batchID, uid string) (batch.Batch, error) {
	var row batchRow
	q := `UPDATE batches SET student_ids = ` + set + ` WHERE id = $1 RETURNING ` + batchColumns
	if err := repo.db.GetContext(ctx, &row, q, batchID, uid); err != nil {
		if isNoRows(err) {
			return batch.Batch{}, batch.ErrNotFound
		}
		return batch.Batch{}, errors.Wrap(mapErr(err), "updating batch members")
	}
	return row.toBatch(), nil
}

func (repo *batchRepository) AddStudent(ctx context.Context, batchID, uid string) (batch.Batch, error) {
	return repo.updateMembers(ctx,
		`CASE WHEN $2 = ANY(student_ids) THEN student_ids ELSE array_append(student_ids, $2) END`, batchID, uid)
}

func (repo *batchRepository) RemoveStudent(ctx context.Context, batchID, uid string) (batch.Batch, error) {
	return repo.updateMembers(ctx, `array_remove(student_ids, $2)`, batchID, uid)
}
