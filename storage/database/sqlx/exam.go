package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/exam"
)

const testColumns = `id, title, to_char(date, 'YYYY-MM-DD') AS date, batch_id, batch_name, duration, questions,
	total_marks, created_at`

type testRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Date       string    `db:"date"`
	BatchID    string    `db:"batch_id"`
	BatchName  string    `db:"batch_name"`
	Duration   int       `db:"duration"`
	Questions  []byte    `db:"questions"`
	TotalMarks int       `db:"total_marks"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r testRow) toTest() (exam.Test, error) {
	t := exam.Test{
		ID:         r.ID,
		Title:      r.Title,
		Date:       r.Date,
		BatchID:    r.BatchID,
		BatchName:  r.BatchName,
		Duration:   r.Duration,
		TotalMarks: r.TotalMarks,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Questions, &t.Questions); err != nil {
		return exam.Test{}, errors.Wrap(err, "decoding questions")
	}
	if t.Questions == nil {
		t.Questions = []exam.Question{}
	}
	return t, nil
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateTest(ctx context.Context, t exam.Test) (exam.Test, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Questions == nil {
		t.Questions = []exam.Question{}
	}
	t.TotalMarks = exam.TotalMarksFor(len(t.Questions))
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return exam.Test{}, errors.Wrap(err, "encoding questions")
	}
	_, err = repo.db.ExecContext(ctx, `INSERT INTO tests
		(id, title, date, batch_id, batch_name, duration, questions, total_marks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Title, t.Date, t.BatchID, t.BatchName, t.Duration, questions, t.TotalMarks, t.CreatedAt)
	if err != nil {
		return exam.Test{}, errors.Wrap(mapErr(err), "inserting test")
	}
	return t, nil
}

func (repo *examRepository) GetTest(ctx context.Context, id string) (exam.Test, error) {
	var row testRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+testColumns+` FROM tests WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return exam.Test{}, exam.ErrNotFound
		}
		return exam.Test{}, errors.Wrap(mapErr(err), "selecting test")
	}
	return row.toTest()
}

func (repo *examRepository) QueryTests(ctx context.Context, filter exam.QueryFilter) ([]exam.Test, error) {
	var w where
	if filter.BatchIDs != nil {
		w.add("(batch_id = ? OR batch_id = ANY(?))", core.AllBatches, pq.Array(filter.BatchIDs))
	}
	var rows []testRow
	q := `SELECT ` + testColumns + ` FROM tests` + w.String() + ` ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting tests")
	}
	tests := make([]exam.Test, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTest()
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, nil
}

func (repo *examRepository) AppendQuestion(ctx context.Context, testID string, q exam.Question) (exam.Test, error) {
	question, err := json.Marshal([]exam.Question{q})
	if err != nil {
		return exam.Test{}, errors.Wrap(err, "encoding question")
	}
	var row testRow
	err = repo.db.GetContext(ctx, &row, `UPDATE tests SET questions = questions || $2::jsonb,
		total_marks = (jsonb_array_length(questions) + 1) * $3
		WHERE id = $1 RETURNING `+testColumns, testID, question, exam.MarksPerQuestion)
	if err != nil {
		if isNoRows(err) {
			return exam.Test{}, exam.ErrNotFound
		}
		return exam.Test{}, errors.Wrap(mapErr(err), "appending question")
	}
	return row.toTest()
}
