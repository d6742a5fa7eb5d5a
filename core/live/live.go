// Package live carries change notifications between writers and subscribers.
//
// Events are signals only: they say that something under a topic changed, never what.
// Subscribers react by re-reading the data they watch, which keeps every
// snapshot authoritative and makes dropped or coalesced events harmless.
package live

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	TopicSettings      = "config/global"
	TopicBatches       = "batches"
	TopicNotifications = "notifications"
	TopicTests         = "tests"
)

// ChaptersTopic is the topic of the chapters of a batch subject.
func ChaptersTopic(batchID, subject string) string {
	return join("batches", batchID, "subjects", subject, "chapters")
}

// LecturesTopic is the topic of the lectures of a chapter.
func LecturesTopic(batchID, subject, chapterID string) string {
	return join("batches", batchID, "subjects", subject, "chapters", chapterID, "lectures")
}

func join(parts ...string) string {
	return strings.Join(parts, "/")
}

type Event struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

// Subscription delivers the events of the topics it was opened with.
type Subscription interface {
	C() <-chan Event
	Close() error
}

// Broker fans change events out to subscribers.
type Broker interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}

// Watcher is a handle on a running watch. Close stops it.
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Watch calls refresh once right away and again after every event published on topics,
// until ctx is done or the returned Watcher is closed.
// refresh runs on the watch goroutine and must not call Close on its own Watcher.
func Watch(ctx context.Context, broker Broker, refresh func(ctx context.Context), topics ...string) (*Watcher, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub, err := broker.Subscribe(ctx, topics...)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &Watcher{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		defer func() { _ = sub.Close() }()

		refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				if ctx.Err() != nil {
					return
				}
				refresh(ctx)
			}
		}
	}()
	return w, nil
}

// Close stops the watch and waits for its goroutine to exit.
// refresh is never called again once Close returns. Closing twice is a no-op.
func (w *Watcher) Close() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}
