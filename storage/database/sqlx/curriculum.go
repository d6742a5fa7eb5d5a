package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gothwad/classesx/core/curriculum"
)

const (
	chapterColumns = `id, batch_id, subject, title, created_at`
	lectureColumns = `id, batch_id, subject, chapter_id, topic_name, to_char(date, 'YYYY-MM-DD') AS date,
		youtube_url, notes_url, dpp_url, test_id, created_at`
)

type chapterRow struct {
	ID        string    `db:"id"`
	BatchID   string    `db:"batch_id"`
	Subject   string    `db:"subject"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

func (r chapterRow) toChapter() curriculum.Chapter {
	return curriculum.Chapter{ID: r.ID, BatchID: r.BatchID, Subject: r.Subject, Title: r.Title, CreatedAt: r.CreatedAt.UTC()}
}

type lectureRow struct {
	ID         string      `db:"id"`
	BatchID    string      `db:"batch_id"`
	Subject    string      `db:"subject"`
	ChapterID  string      `db:"chapter_id"`
	TopicName  string      `db:"topic_name"`
	Date       string      `db:"date"`
	YoutubeURL null.String `db:"youtube_url"`
	NotesURL   null.String `db:"notes_url"`
	DppURL     null.String `db:"dpp_url"`
	TestID     null.String `db:"test_id"`
	CreatedAt  time.Time   `db:"created_at"`
}

func optString(s string) null.String { return null.NewString(s, s != "") }

func toLectureRow(l curriculum.Lecture) lectureRow {
	return lectureRow{
		ID:         l.ID,
		BatchID:    l.BatchID,
		Subject:    l.Subject,
		ChapterID:  l.ChapterID,
		TopicName:  l.TopicName,
		Date:       l.Date,
		YoutubeURL: optString(l.YoutubeURL),
		NotesURL:   optString(l.NotesURL),
		DppURL:     optString(l.DppURL),
		TestID:     optString(l.TestID),
		CreatedAt:  l.CreatedAt,
	}
}

func (r lectureRow) toLecture() curriculum.Lecture {
	return curriculum.Lecture{
		ID:         r.ID,
		BatchID:    r.BatchID,
		Subject:    r.Subject,
		ChapterID:  r.ChapterID,
		TopicName:  r.TopicName,
		Date:       r.Date,
		YoutubeURL: r.YoutubeURL.String,
		NotesURL:   r.NotesURL.String,
		DppURL:     r.DppURL.String,
		TestID:     r.TestID.String,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type curriculumRepository struct {
	db *sqlx.DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *sqlx.DB) curriculum.Repository {
	return &curriculumRepository{db: db}
}

func (repo *curriculumRepository) CreateChapter(ctx context.Context, ch curriculum.Chapter) (curriculum.Chapter, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO chapters (`+chapterColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		ch.ID, ch.BatchID, ch.Subject, ch.Title, ch.CreatedAt)
	if err != nil {
		return curriculum.Chapter{}, errors.Wrap(mapErr(err), "inserting chapter")
	}
	return ch, nil
}

func (repo *curriculumRepository) GetChapter(ctx context.Context, batchID, subject, chapterID string) (curriculum.Chapter, error) {
	var row chapterRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+chapterColumns+` FROM chapters WHERE id = $1 AND batch_id = $2 AND subject = $3`,
		chapterID, batchID, subject)
	if err != nil {
		if isNoRows(err) {
			return curriculum.Chapter{}, curriculum.ErrChapterNotFound
		}
		return curriculum.Chapter{}, errors.Wrap(mapErr(err), "selecting chapter")
	}
	return row.toChapter(), nil
}

func (repo *curriculumRepository) QueryChapters(ctx context.Context, batchID, subject string) ([]curriculum.Chapter, error) {
	var rows []chapterRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+chapterColumns+` FROM chapters WHERE batch_id = $1 AND subject = $2 ORDER BY created_at, seq`,
		batchID, subject)
	if err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting chapters")
	}
	chapters := make([]curriculum.Chapter, len(rows))
	for i, row := range rows {
		chapters[i] = row.toChapter()
	}
	return chapters, nil
}

func (repo *curriculumRepository) CreateLecture(ctx context.Context, l curriculum.Lecture) (curriculum.Lecture, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO lectures
		(id, batch_id, subject, chapter_id, topic_name, date, youtube_url, notes_url, dpp_url, test_id, created_at)
		VALUES (:id, :batch_id, :subject, :chapter_id, :topic_name, :date, :youtube_url, :notes_url, :dpp_url,
		:test_id, :created_at)`, toLectureRow(l))
	if err != nil {
		return curriculum.Lecture{}, errors.Wrap(mapErr(err), "inserting lecture")
	}
	return l, nil
}

func (repo *curriculumRepository) GetLecture(ctx context.Context, key curriculum.LectureKey) (curriculum.Lecture, error) {
	var row lectureRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+lectureColumns+` FROM lectures WHERE id = $1 AND batch_id = $2 AND subject = $3 AND chapter_id = $4`,
		key.LectureID, key.BatchID, key.Subject, key.ChapterID)
	if err != nil {
		if isNoRows(err) {
			return curriculum.Lecture{}, curriculum.ErrLectureNotFound
		}
		return curriculum.Lecture{}, errors.Wrap(mapErr(err), "selecting lecture")
	}
	return row.toLecture(), nil
}

func (repo *curriculumRepository) QueryLectures(ctx context.Context, batchID, subject, chapterID string) ([]curriculum.Lecture, error) {
	var rows []lectureRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+lectureColumns+` FROM lectures WHERE batch_id = $1 AND subject = $2 AND chapter_id = $3
		ORDER BY created_at, seq`, batchID, subject, chapterID)
	if err != nil {
		return nil, errors.Wrap(mapErr(err), "selecting lectures")
	}
	lectures := make([]curriculum.Lecture, len(rows))
	for i, row := range rows {
		lectures[i] = row.toLecture()
	}
	return lectures, nil
}

func (repo *curriculumRepository) UpdateLectureResources(ctx context.Context, key curriculum.LectureKey, res curriculum.Resources) (curriculum.Lecture, error) {
	var row lectureRow
	err := repo.db.GetContext(ctx, &row, `UPDATE lectures SET youtube_url = $5, notes_url = $6, dpp_url = $7
		WHERE id = $1 AND batch_id = $2 AND subject = $3 AND chapter_id = $4 RETURNING `+lectureColumns,
		key.LectureID, key.BatchID, key.Subject, key.ChapterID,
		optString(res.YoutubeURL), optString(res.NotesURL), optString(res.DppURL))
	if err != nil {
		if isNoRows(err) {
			return curriculum.Lecture{}, curriculum.ErrLectureNotFound
		}
		return curriculum.Lecture{}, errors.Wrap(mapErr(err), "updating lecture resources")
	}
	return row.toLecture(), nil
}
