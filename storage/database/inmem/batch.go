package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
)

type batchRepository struct {
	db *batchTable
}

var _ batch.Repository = (*batchRepository)(nil) // interface compliance check

func NewBatchRepository(db *DB) batch.Repository {
	return &batchRepository{db: db.batch}
}

func copyBatch(b batch.Batch) batch.Batch {
	b.Subjects = append([]string{}, b.Subjects...)
	b.StudentIDs = append([]string{}, b.StudentIDs...)
	return b
}

func (repo *batchRepository) CreateBatch(_ context.Context, b batch.Batch) (batch.Batch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	repo.db.seq++
	repo.db.table[b.ID] = &batchRow{seq: repo.db.seq, b: copyBatch(b)}
	return copyBatch(b), nil
}

func (repo *batchRepository) GetBatch(_ context.Context, id string) (batch.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return copyBatch(row.b), nil
	}
	return batch.Batch{}, batch.ErrNotFound
}

func (repo *batchRepository) QueryBatches(_ context.Context, filter batch.QueryFilter) ([]batch.Batch, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	rows := make([]*batchRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if filter.MemberID != "" && !row.b.HasStudent(filter.MemberID) {
			continue
		}
		if search != "" && !strings.HasPrefix(strings.ToLower(row.b.Name), search) {
			continue
		}
		rows = append(rows, row)
	}
	// newest first, by name when searching
	sort.Slice(rows, func(i, j int) bool {
		if search != "" && rows[i].b.Name != rows[j].b.Name {
			return rows[i].b.Name < rows[j].b.Name
		}
		if !rows[i].b.CreatedAt.Equal(rows[j].b.CreatedAt) {
			return rows[i].b.CreatedAt.After(rows[j].b.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	batches := make([]batch.Batch, len(rows))
	for i, row := range rows {
		batches[i] = copyBatch(row.b)
	}
	return batches, nil
}

func (repo *batchRepository) AddStudent(_ context.Context, batchID, uid string) (batch.Batch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[batchID]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	row.b.StudentIDs = core.AppendUnique(row.b.StudentIDs, uid)
	return copyBatch(row.b), nil
}

func (repo *batchRepository) RemoveStudent(_ context.Context, batchID, uid string) (batch.Batch, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[batchID]
	if !ok {
		return batch.Batch{}, batch.ErrNotFound
	}
	row.b.StudentIDs = core.RemoveString(row.b.StudentIDs, uid)
	return copyBatch(row.b), nil
}
