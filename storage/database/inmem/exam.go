package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gothwad/classesx/core/exam"
)

type examRepository struct {
	db *testTable
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db.test}
}

func copyTest(t exam.Test) exam.Test {
	qs := make([]exam.Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]string{}, q.Options...)
		if q.CorrectOption != nil {
			c := *q.CorrectOption
			q.CorrectOption = &c
		}
		qs[i] = q
	}
	t.Questions = qs
	return t
}

func (repo *examRepository) CreateTest(_ context.Context, t exam.Test) (exam.Test, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TotalMarks = exam.TotalMarksFor(len(t.Questions))
	repo.db.seq++
	repo.db.table[t.ID] = &testRow{seq: repo.db.seq, t: copyTest(t)}
	return copyTest(t), nil
}

func (repo *examRepository) GetTest(_ context.Context, id string) (exam.Test, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return copyTest(row.t), nil
	}
	return exam.Test{}, exam.ErrNotFound
}

func (repo *examRepository) QueryTests(_ context.Context, filter exam.QueryFilter) ([]exam.Test, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*testRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if filter.BatchIDs == nil || row.t.IsFor(filter.BatchIDs) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].t.CreatedAt.Equal(rows[j].t.CreatedAt) {
			return rows[i].t.CreatedAt.After(rows[j].t.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	tests := make([]exam.Test, len(rows))
	for i, row := range rows {
		tests[i] = copyTest(row.t)
	}
	return tests, nil
}

func (repo *examRepository) AppendQuestion(_ context.Context, testID string, q exam.Question) (exam.Test, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[testID]
	if !ok {
		return exam.Test{}, exam.ErrNotFound
	}
	row.t.Questions = append(row.t.Questions, q)
	row.t.TotalMarks = exam.TotalMarksFor(len(row.t.Questions))
	row.t = copyTest(row.t)
	return copyTest(row.t), nil
}
