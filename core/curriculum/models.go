package curriculum

import (
	"time"

	"github.com/gothwad/classesx/core"
)

type Chapter struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Lecture struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	Subject    string    `json:"subject"`
	ChapterID  string    `json:"chapter_id"`
	TopicName  string    `json:"topic_name"`
	Date       string    `json:"date"` // YYYY-MM-DD
	YoutubeURL string    `json:"youtube_url,omitempty"`
	NotesURL   string    `json:"notes_url,omitempty"`
	DppURL     string    `json:"dpp_url,omitempty"`
	TestID     string    `json:"test_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// Key identifies the lecture through its whole hierarchy.
func (l Lecture) Key() LectureKey {
	return LectureKey{BatchID: l.BatchID, Subject: l.Subject, ChapterID: l.ChapterID, LectureID: l.ID}
}

func (l Lecture) Resources() Resources {
	return Resources{YoutubeURL: l.YoutubeURL, NotesURL: l.NotesURL, DppURL: l.DppURL}
}

// WithResources returns a copy of l with its links replaced by res.
func (l Lecture) WithResources(res Resources) Lecture {
	l.YoutubeURL = res.YoutubeURL
	l.NotesURL = res.NotesURL
	l.DppURL = res.DppURL
	return l
}

type LectureKey struct {
	BatchID   string
	Subject   string
	ChapterID string
	LectureID string
}

// Resources are the links attached to a lecture.
type Resources struct {
	YoutubeURL string `json:"youtube_url"`
	NotesURL   string `json:"notes_url"`
	DppURL     string `json:"dpp_url"`
}

// Clean trims every link.
func (r Resources) Clean() Resources {
	return Resources{
		YoutubeURL: core.CleanString(r.YoutubeURL),
		NotesURL:   core.CleanString(r.NotesURL),
		DppURL:     core.CleanString(r.DppURL),
	}
}

type NewChapter struct {
	Title string `json:"title"`
}

type NewLecture struct {
	BatchID    string `json:"-"`
	Subject    string `json:"-"`
	ChapterID  string `json:"-"`
	TopicName  string `json:"topic_name"`
	Date       string `json:"date"`
	YoutubeURL string `json:"youtube_url"`
	NotesURL   string `json:"notes_url"`
	DppURL     string `json:"dpp_url"`
	TestID     string `json:"test_id"`
}

var (
	errTitleRequired   = "Chapter title is required."
	errTopicRequired   = "Topic name is required."
	errDateRequired    = "Lecture date is required."
	errChapterRequired = "Select a chapter first."
	errDateFormat      = "date must be formatted as YYYY-MM-DD"
)

// Validate checks the guards of chapter creation.
func (nc *NewChapter) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	if nc.Title == "" {
		return core.NewFieldError("title", errTitleRequired)
	}
	return nil
}

// Validate checks the guards of lecture creation.
func (nl *NewLecture) Validate() error {
	nl.TopicName = core.CleanString(nl.TopicName)
	nl.Date = core.CleanString(nl.Date)
	nl.ChapterID = core.CleanString(nl.ChapterID)
	res := Resources{YoutubeURL: nl.YoutubeURL, NotesURL: nl.NotesURL, DppURL: nl.DppURL}.Clean()
	nl.YoutubeURL, nl.NotesURL, nl.DppURL = res.YoutubeURL, res.NotesURL, res.DppURL
	nl.TestID = core.CleanString(nl.TestID)

	switch {
	case nl.ChapterID == "":
		return core.NewFieldError("chapter_id", errChapterRequired)
	case nl.TopicName == "":
		return core.NewFieldError("topic_name", errTopicRequired)
	case nl.Date == "":
		return core.NewFieldError("date", errDateRequired)
	}
	if _, err := time.Parse("2006-01-02", nl.Date); err != nil {
		return core.NewFieldError("date", errDateFormat)
	}
	return nil
}
