package navigation

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/batch"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/live"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/core/video"
)

type View string

const (
	ViewMain          View = "MAIN"
	ViewSubjects      View = "SUBJECTS"
	ViewChapters      View = "CHAPTERS"
	ViewLectures      View = "LECTURES"
	ViewLectureWatch  View = "LECTURE_WATCH"
	ViewLectureManage View = "LECTURE_MANAGE"
	ViewMenu          View = "MENU"
	ViewContent       View = "CONTENT"
)

// Section is an entry of the batch menu.
type Section string

const (
	SectionCurriculum Section = "Curriculum"
	SectionStudents   Section = "Students"
	SectionTests      Section = "Tests"
	SectionAttendance Section = "Attendance"
	SectionFees       Section = "Fees"
	SectionPYQs       Section = "PYQs"
)

var Sections = []Section{SectionCurriculum, SectionStudents, SectionTests, SectionAttendance, SectionFees, SectionPYQs}

var (
	ErrAdminOnly      = errors.New("Only admins can manage the curriculum.")
	ErrInvalidMove    = errors.New("not available from the current view")
	ErrUnknownSubject = errors.New("subject not found in batch")
)

// overlay is a resource edit shown before the store confirms it.
type overlay struct {
	res       curriculum.Resources
	committed bool
	seq       uint64
}

// Snapshot is what the navigator shows.
type Snapshot struct {
	View      View
	Section   Section
	Batch     batch.Batch
	Subject   string
	Chapter   *curriculum.Chapter
	Chapters  []curriculum.Chapter
	Lectures  []curriculum.Lecture
	Lecture   *curriculum.Lecture
	Player    *video.Surface // LECTURE_WATCH only
	CanManage bool
	Pending   bool // a resource edit of the selected lecture awaits the store
	Err       error
}

// Navigator walks the curriculum of a batch: subjects, chapters, lectures and the lecture player.
// It keeps one live watch open on the chapters or lectures in scope.
type Navigator struct {
	svc    curriculum.Service
	actor  user.User
	caps   Capabilities
	batch  batch.Batch
	origin string
	onExit func()
	ctx    context.Context

	mu       sync.Mutex
	menu     bool
	fromMenu bool
	view     View
	section  Section
	subject  string
	chapter  *curriculum.Chapter
	lecture  *curriculum.Lecture
	chapters []curriculum.Chapter
	lectures []curriculum.Lecture
	overlays map[string]overlay
	seq      uint64
	err      error
	closed   bool

	scope string
	gen   uint64
	watch *live.Watcher
}

// NewNavigator starts on MAIN. onExit is called when Back leaves the navigator.
func NewNavigator(ctx context.Context, svc curriculum.Service, actor user.User, b batch.Batch, onExit func()) *Navigator {
	return newNavigator(ctx, svc, actor, b, onExit, false)
}

// NewMenuNavigator starts on the batch menu.
func NewMenuNavigator(ctx context.Context, svc curriculum.Service, actor user.User, b batch.Batch, onExit func()) *Navigator {
	return newNavigator(ctx, svc, actor, b, onExit, true)
}

func newNavigator(ctx context.Context, svc curriculum.Service, actor user.User, b batch.Batch, onExit func(), menu bool) *Navigator {
	caps := CapabilitiesFor(actor.Role)
	if caps == nil {
		caps = MemberNavigator{}
	}
	n := &Navigator{
		svc:      svc,
		actor:    actor,
		caps:     caps,
		batch:    b,
		origin:   core.Conf.AppOrigin,
		onExit:   onExit,
		ctx:      ctx,
		menu:     menu,
		view:     ViewMain,
		overlays: make(map[string]overlay),
	}
	if menu {
		n.view = ViewMenu
	}
	return n
}

// View returns a copy of what the navigator shows.
func (n *Navigator) View() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := Snapshot{
		View:      n.view,
		Section:   n.section,
		Batch:     n.batch,
		Subject:   n.subject,
		CanManage: n.caps.CanManageCurriculum(),
		Err:       n.err,
	}
	if n.chapter != nil {
		ch := *n.chapter
		s.Chapter = &ch
	}
	s.Chapters = append([]curriculum.Chapter{}, n.chapters...)
	s.Lectures = make([]curriculum.Lecture, len(n.lectures))
	for i, l := range n.lectures {
		s.Lectures[i] = n.withOverlay(l)
	}
	if n.lecture != nil {
		l := n.withOverlay(*n.lecture)
		s.Lecture = &l
		if o, ok := n.overlays[l.ID]; ok && !o.committed {
			s.Pending = true
		}
		if n.view == ViewLectureWatch {
			surface := video.Render(l.YoutubeURL, n.origin)
			s.Player = &surface
		}
	}
	return s
}

func (n *Navigator) withOverlay(l curriculum.Lecture) curriculum.Lecture {
	if o, ok := n.overlays[l.ID]; ok {
		return l.WithResources(o.res)
	}
	return l
}

// OpenSubjects moves from MAIN to SUBJECTS.
func (n *Navigator) OpenSubjects() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view != ViewMain {
		return ErrInvalidMove
	}
	n.view = ViewSubjects
	return nil
}

// OpenSection moves from MENU to a section. The curriculum section opens on SUBJECTS.
func (n *Navigator) OpenSection(sec Section) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view != ViewMenu {
		return ErrInvalidMove
	}
	switch sec {
	case SectionCurriculum:
		n.fromMenu = true
		n.view = ViewSubjects
	case SectionStudents, SectionTests, SectionAttendance, SectionFees, SectionPYQs:
		n.view = ViewContent
	default:
		return errors.Errorf("unknown section %q", sec)
	}
	n.section = sec
	return nil
}

func (n *Navigator) SelectSubject(name string) error {
	n.mu.Lock()
	if n.view != ViewSubjects {
		n.mu.Unlock()
		return ErrInvalidMove
	}
	if !n.batch.HasSubject(name) {
		n.mu.Unlock()
		return ErrUnknownSubject
	}
	n.subject = name
	n.chapters = nil
	n.view = ViewChapters
	return n.rescope()
}

func (n *Navigator) SelectChapter(id string) error {
	n.mu.Lock()
	if n.view != ViewChapters {
		n.mu.Unlock()
		return ErrInvalidMove
	}
	var found *curriculum.Chapter
	for i := range n.chapters {
		if n.chapters[i].ID == id {
			ch := n.chapters[i]
			found = &ch
			break
		}
	}
	if found == nil {
		n.mu.Unlock()
		return curriculum.ErrChapterNotFound
	}
	n.chapter = found
	n.lectures = nil
	n.view = ViewLectures
	return n.rescope()
}

// Watch opens the player of a lecture of the list.
func (n *Navigator) Watch(lectureID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view != ViewLectures {
		return ErrInvalidMove
	}
	return n.selectLecture(lectureID, ViewLectureWatch)
}

// Manage opens the resource editor of a lecture, from the list or from its player.
func (n *Navigator) Manage(lectureID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.caps.CanManageCurriculum() {
		return ErrAdminOnly
	}
	if n.view != ViewLectures && n.view != ViewLectureWatch {
		return ErrInvalidMove
	}
	return n.selectLecture(lectureID, ViewLectureManage)
}

func (n *Navigator) selectLecture(id string, next View) error {
	for _, l := range n.lectures {
		if l.ID == id {
			l := l
			n.lecture = &l
			n.view = next
			return nil
		}
	}
	return curriculum.ErrLectureNotFound
}

// Back moves to the parent view. It reports whether the navigator was left, in which case onExit was called.
func (n *Navigator) Back() (exited bool) {
	n.mu.Lock()
	switch n.view {
	case ViewLectureWatch, ViewLectureManage:
		n.view = ViewLectures
	case ViewLectures:
		n.lecture = nil
		n.lectures = nil
		n.view = ViewChapters
	case ViewChapters:
		n.chapter = nil
		n.chapters = nil
		n.view = ViewSubjects
	case ViewSubjects:
		n.subject = ""
		if n.fromMenu {
			n.fromMenu = false
			n.section = ""
			n.view = ViewMenu
		} else {
			n.view = ViewMain
		}
	case ViewContent:
		n.section = ""
		n.view = ViewMenu
	case ViewMain, ViewMenu:
		exited = true
	}
	_ = n.rescope()

	if exited && n.onExit != nil {
		n.onExit()
	}
	return exited
}

// AddChapter appends a chapter to the subject in scope.
func (n *Navigator) AddChapter(ctx context.Context, title string) (curriculum.Chapter, error) {
	n.mu.Lock()
	if !n.caps.CanManageCurriculum() {
		n.mu.Unlock()
		return curriculum.Chapter{}, ErrAdminOnly
	}
	nc := curriculum.NewChapter{Title: title}
	if err := nc.Validate(); err != nil {
		n.mu.Unlock()
		return curriculum.Chapter{}, err
	}
	if n.view != ViewChapters {
		n.mu.Unlock()
		return curriculum.Chapter{}, ErrInvalidMove
	}
	subject := n.subject
	n.mu.Unlock()

	return n.svc.AddChapter(ctx, n.actor, n.batch.ID, subject, nc)
}

// AddLecture appends a lecture to the chapter in scope.
func (n *Navigator) AddLecture(ctx context.Context, topic, date string) (curriculum.Lecture, error) {
	n.mu.Lock()
	if !n.caps.CanManageCurriculum() {
		n.mu.Unlock()
		return curriculum.Lecture{}, ErrAdminOnly
	}
	nl := curriculum.NewLecture{
		BatchID:   n.batch.ID,
		Subject:   n.subject,
		TopicName: topic,
		Date:      date,
	}
	if n.chapter != nil && n.view == ViewLectures {
		nl.ChapterID = n.chapter.ID
	}
	n.mu.Unlock()

	if err := nl.Validate(); err != nil {
		return curriculum.Lecture{}, err
	}
	return n.svc.AddLecture(ctx, n.actor, nl)
}

// SaveResources edits the links of the lecture being managed.
// The edit shows right away and is dropped if the store refuses it. Once stored, it stays until a
// snapshot carrying the lecture replaces it, and the navigator goes back to LECTURES.
func (n *Navigator) SaveResources(ctx context.Context, res curriculum.Resources) (curriculum.Lecture, error) {
	n.mu.Lock()
	if !n.caps.CanManageCurriculum() {
		n.mu.Unlock()
		return curriculum.Lecture{}, ErrAdminOnly
	}
	if n.view != ViewLectureManage || n.lecture == nil {
		n.mu.Unlock()
		return curriculum.Lecture{}, ErrInvalidMove
	}
	res = res.Clean()
	key := n.lecture.Key()
	n.seq++
	seq := n.seq
	n.overlays[key.LectureID] = overlay{res: res, seq: seq}
	n.mu.Unlock()

	l, err := n.svc.UpdateResources(ctx, n.actor, key, res)

	n.mu.Lock()
	defer n.mu.Unlock()
	o, ok := n.overlays[key.LectureID]
	if err != nil {
		if ok && o.seq == seq {
			delete(n.overlays, key.LectureID)
		}
		return curriculum.Lecture{}, err
	}
	if ok && o.seq == seq {
		o.res = l.Resources()
		o.committed = true
		n.overlays[key.LectureID] = o
	}
	if n.view == ViewLectureManage && n.lecture != nil && n.lecture.ID == key.LectureID {
		n.view = ViewLectures
	}
	return l, nil
}

// Close stops the live watch. The navigator must not be used afterwards.
func (n *Navigator) Close() {
	n.mu.Lock()
	n.closed = true
	_ = n.rescope()
}

// rescope opens the watch matching the current view when it changed, closing the previous one.
// It is called with n.mu held and releases it.
func (n *Navigator) rescope() error {
	var scope string
	if !n.closed {
		switch n.view {
		case ViewChapters:
			scope = live.ChaptersTopic(n.batch.ID, n.subject)
		case ViewLectures, ViewLectureWatch, ViewLectureManage:
			if n.chapter != nil {
				scope = live.LecturesTopic(n.batch.ID, n.subject, n.chapter.ID)
			}
		}
	}
	if scope == n.scope {
		n.mu.Unlock()
		return nil
	}

	n.gen++
	gen := n.gen
	prev := n.watch
	n.watch = nil
	n.scope = scope
	n.err = nil
	view, subject, chapter := n.view, n.subject, n.chapter
	n.mu.Unlock()

	prev.Close()
	if scope == "" {
		return nil
	}

	var (
		w   *live.Watcher
		err error
	)
	if view == ViewChapters {
		w, err = n.svc.WatchChapters(n.ctx, n.batch.ID, subject, func(chs []curriculum.Chapter, err error) {
			n.deliverChapters(gen, chs, err)
		})
	} else {
		w, err = n.svc.WatchLectures(n.ctx, n.batch.ID, subject, chapter.ID, func(ls []curriculum.Lecture, err error) {
			n.deliverLectures(gen, ls, err)
		})
	}

	n.mu.Lock()
	if err != nil {
		if n.gen == gen {
			n.err = err
		}
		n.mu.Unlock()
		return errors.Wrap(err, "watching curriculum")
	}
	if n.gen != gen {
		// moved on while the watch was opening
		n.mu.Unlock()
		w.Close()
		return nil
	}
	n.watch = w
	n.mu.Unlock()
	return nil
}

func (n *Navigator) deliverChapters(gen uint64, chs []curriculum.Chapter, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return
	}
	n.err = err
	if err == nil {
		n.chapters = chs
	}
}

func (n *Navigator) deliverLectures(gen uint64, ls []curriculum.Lecture, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return
	}
	n.err = err
	if err != nil {
		return
	}
	n.lectures = ls
	for _, l := range ls {
		if o, ok := n.overlays[l.ID]; ok && o.committed {
			delete(n.overlays, l.ID)
		}
		if n.lecture != nil && n.lecture.ID == l.ID {
			l := l
			n.lecture = &l
		}
	}
}
