package curriculum

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
)

var (
	// errors
	ErrChapterNotFound = errors.New("chapter not found")
	ErrLectureNotFound = errors.New("lecture not found")
	ErrSubjectNotFound = errors.New("subject not found in batch")
)

type (
	Repository interface {
		CreateChapter(ctx context.Context, ch Chapter) (Chapter, error)
		GetChapter(ctx context.Context, batchID, subject, chapterID string) (Chapter, error)
		// QueryChapters returns the chapters of a batch subject oldest first.
		QueryChapters(ctx context.Context, batchID, subject string) ([]Chapter, error)
		CreateLecture(ctx context.Context, l Lecture) (Lecture, error)
		GetLecture(ctx context.Context, key LectureKey) (Lecture, error)
		// QueryLectures returns the lectures of a chapter oldest first.
		QueryLectures(ctx context.Context, batchID, subject, chapterID string) ([]Lecture, error)
		UpdateLectureResources(ctx context.Context, key LectureKey, res Resources) (Lecture, error)
	}

	Service interface {
		Chapters(ctx context.Context, batchID, subject string) ([]Chapter, error)
		AddChapter(ctx context.Context, actor user.User, batchID, subject string, nc NewChapter) (Chapter, error)
		Lectures(ctx context.Context, batchID, subject, chapterID string) ([]Lecture, error)
		Lecture(ctx context.Context, key LectureKey) (Lecture, error)
		AddLecture(ctx context.Context, actor user.User, nl NewLecture) (Lecture, error)
		UpdateResources(ctx context.Context, actor user.User, key LectureKey, res Resources) (Lecture, error)
		WatchChapters(ctx context.Context, batchID, subject string, deliver func([]Chapter, error)) (*live.Watcher, error)
		WatchLectures(ctx context.Context, batchID, subject, chapterID string, deliver func([]Lecture, error)) (*live.Watcher, error)
	}

	service struct {
		repo     Repository
		batchSvc batch.Service
		broker   live.Broker
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batchSvc batch.Service, broker live.Broker, logger core.Logger) Service {
	return &service{
		repo:     repo,
		batchSvc: batchSvc,
		broker:   broker,
		logger:   logger,
	}
}

func (svc *service) publish(ctx context.Context, topic string) {
	if err := svc.broker.Publish(ctx, topic); err != nil {
		svc.logger.Warn("publishing curriculum change", err)
	}
}

func (svc *service) checkSubject(ctx context.Context, batchID, subject string) error {
	b, err := svc.batchSvc.Get(ctx, batchID)
	if err != nil {
		return err
	}
	if !b.HasSubject(subject) {
		return ErrSubjectNotFound
	}
	return nil
}

func (svc *service) Chapters(ctx context.Context, batchID, subject string) ([]Chapter, error) {
	return svc.repo.QueryChapters(ctx, batchID, subject)
}

func (svc *service) AddChapter(ctx context.Context, actor user.User, batchID, subject string, nc NewChapter) (Chapter, error) {
	if !actor.IsAdmin() {
		return Chapter{}, core.ErrForbidden
	}
	if err := nc.Validate(); err != nil {
		return Chapter{}, err
	}
	if err := svc.checkSubject(ctx, batchID, subject); err != nil {
		return Chapter{}, err
	}
	ch, err := svc.repo.CreateChapter(ctx, Chapter{
		BatchID:   batchID,
		Subject:   subject,
		Title:     nc.Title,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Chapter{}, errors.Wrap(err, "creating chapter")
	}
	svc.publish(ctx, live.ChaptersTopic(batchID, subject))
	return ch, nil
}

func (svc *service) Lectures(ctx context.Context, batchID, subject, chapterID string) ([]Lecture, error) {
	return svc.repo.QueryLectures(ctx, batchID, subject, chapterID)
}

func (svc *service) Lecture(ctx context.Context, key LectureKey) (Lecture, error) {
	return svc.repo.GetLecture(ctx, key)
}

func (svc *service) AddLecture(ctx context.Context, actor user.User, nl NewLecture) (Lecture, error) {
	if !actor.IsAdmin() {
		return Lecture{}, core.ErrForbidden
	}
	if err := nl.Validate(); err != nil {
		return Lecture{}, err
	}
	if _, err := svc.repo.GetChapter(ctx, nl.BatchID, nl.Subject, nl.ChapterID); err != nil {
		return Lecture{}, err
	}
	l, err := svc.repo.CreateLecture(ctx, Lecture{
		BatchID:    nl.BatchID,
		Subject:    nl.Subject,
		ChapterID:  nl.ChapterID,
		TopicName:  nl.TopicName,
		Date:       nl.Date,
		YoutubeURL: nl.YoutubeURL,
		NotesURL:   nl.NotesURL,
		DppURL:     nl.DppURL,
		TestID:     nl.TestID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Lecture{}, errors.Wrap(err, "creating lecture")
	}
	svc.publish(ctx, live.LecturesTopic(nl.BatchID, nl.Subject, nl.ChapterID))
	return l, nil
}

// UpdateResources replaces the links of a lecture with their trimmed values.
func (svc *service) UpdateResources(ctx context.Context, actor user.User, key LectureKey, res Resources) (Lecture, error) {
	if !actor.IsAdmin() {
		return Lecture{}, core.ErrForbidden
	}
	l, err := svc.repo.UpdateLectureResources(ctx, key, res.Clean())
	if err != nil {
		return Lecture{}, err
	}
	svc.publish(ctx, live.LecturesTopic(key.BatchID, key.Subject, key.ChapterID))
	return l, nil
}

// WatchChapters delivers the chapters of a batch subject now and after every change.
func (svc *service) WatchChapters(ctx context.Context, batchID, subject string, deliver func([]Chapter, error)) (*live.Watcher, error) {
	return live.Watch(ctx, svc.broker, func(ctx context.Context) {
		chapters, err := svc.repo.QueryChapters(ctx, batchID, subject)
		if ctx.Err() != nil {
			return
		}
		deliver(chapters, err)
	}, live.ChaptersTopic(batchID, subject))
}

// WatchLectures delivers the lectures of a chapter now and after every change.
func (svc *service) WatchLectures(ctx context.Context, batchID, subject, chapterID string, deliver func([]Lecture, error)) (*live.Watcher, error) {
	return live.Watch(ctx, svc.broker, func(ctx context.Context) {
		lectures, err := svc.repo.QueryLectures(ctx, batchID, subject, chapterID)
		if ctx.Err() != nil {
			return
		}
		deliver(lectures, err)
	}, live.LecturesTopic(batchID, subject, chapterID))
}
