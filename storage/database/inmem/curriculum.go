package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gothwad/classesx/core/curriculum"
)

type curriculumRepository struct {
	chapters *chapterTable
	lectures *lectureTable
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) curriculum.Repository {
	return &curriculumRepository{chapters: db.chapter, lectures: db.lecture}
}

func (repo *curriculumRepository) CreateChapter(_ context.Context, ch curriculum.Chapter) (curriculum.Chapter, error) {
	repo.chapters.Lock()
	defer repo.chapters.Unlock()

	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	repo.chapters.seq++
	repo.chapters.table[ch.ID] = &chapterRow{seq: repo.chapters.seq, ch: ch}
	return ch, nil
}

func (repo *curriculumRepository) GetChapter(_ context.Context, batchID, subject, chapterID string) (curriculum.Chapter, error) {
	repo.chapters.RLock()
	defer repo.chapters.RUnlock()

	row, ok := repo.chapters.table[chapterID]
	if !ok || row.ch.BatchID != batchID || row.ch.Subject != subject {
		return curriculum.Chapter{}, curriculum.ErrChapterNotFound
	}
	return row.ch, nil
}

func (repo *curriculumRepository) QueryChapters(_ context.Context, batchID, subject string) ([]curriculum.Chapter, error) {
	repo.chapters.RLock()
	defer repo.chapters.RUnlock()

	rows := make([]*chapterRow, 0)
	for _, row := range repo.chapters.table {
		if row.ch.BatchID == batchID && row.ch.Subject == subject {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ch.CreatedAt.Equal(rows[j].ch.CreatedAt) {
			return rows[i].ch.CreatedAt.Before(rows[j].ch.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	chapters := make([]curriculum.Chapter, len(rows))
	for i, row := range rows {
		chapters[i] = row.ch
	}
	return chapters, nil
}

func (repo *curriculumRepository) CreateLecture(_ context.Context, l curriculum.Lecture) (curriculum.Lecture, error) {
	repo.lectures.Lock()
	defer repo.lectures.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	repo.lectures.seq++
	repo.lectures.table[l.ID] = &lectureRow{seq: repo.lectures.seq, l: l}
	return l, nil
}

func (repo *curriculumRepository) lecture(key curriculum.LectureKey) (*lectureRow, error) {
	row, ok := repo.lectures.table[key.LectureID]
	if !ok || row.l.Key() != key {
		return nil, curriculum.ErrLectureNotFound
	}
	return row, nil
}

func (repo *curriculumRepository) GetLecture(_ context.Context, key curriculum.LectureKey) (curriculum.Lecture, error) {
	repo.lectures.RLock()
	defer repo.lectures.RUnlock()

	row, err := repo.lecture(key)
	if err != nil {
		return curriculum.Lecture{}, err
	}
	return row.l, nil
}

func (repo *curriculumRepository) QueryLectures(_ context.Context, batchID, subject, chapterID string) ([]curriculum.Lecture, error) {
	repo.lectures.RLock()
	defer repo.lectures.RUnlock()

	rows := make([]*lectureRow, 0)
	for _, row := range repo.lectures.table {
		if row.l.BatchID == batchID && row.l.Subject == subject && row.l.ChapterID == chapterID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].l.CreatedAt.Equal(rows[j].l.CreatedAt) {
			return rows[i].l.CreatedAt.Before(rows[j].l.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	lectures := make([]curriculum.Lecture, len(rows))
	for i, row := range rows {
		lectures[i] = row.l
	}
	return lectures, nil
}

func (repo *curriculumRepository) UpdateLectureResources(_ context.Context, key curriculum.LectureKey, res curriculum.Resources) (curriculum.Lecture, error) {
	repo.lectures.Lock()
	defer repo.lectures.Unlock()

	row, err := repo.lecture(key)
	if err != nil {
		return curriculum.Lecture{}, err
	}
	row.l = row.l.WithResources(res)
	return row.l, nil
}
