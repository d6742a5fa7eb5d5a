package livesvc

import (
	"context"
	"sync"
	"time"

	"github.com/gothwad/classesx/core/live"
)

// MemoryBroker fans events out within the process.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*memorySubscription]struct{}
}

var _ live.Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string) error {
	evt := live.Event{Topic: topic, At: time.Now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	publishedCounter.WithLabelValues("memory").Inc()
	for sub := range b.subs[topic] {
		sub.deliver(evt)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topics ...string) (live.Subscription, error) {
	sub := &memorySubscription{
		broker: b,
		topics: topics,
		ch:     make(chan live.Event, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		set, ok := b.subs[topic]
		if !ok {
			set = make(map[*memorySubscription]struct{})
			b.subs[topic] = set
		}
		set[sub] = struct{}{}
	}
	subscriptionsGauge.Add(1)
	return sub, nil
}

func (b *MemoryBroker) unsubscribe(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range sub.topics {
		if set, ok := b.subs[topic]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.subs, topic)
			}
		}
	}
	subscriptionsGauge.Sub(1)
}

// Subscribers returns the number of open subscriptions on topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type memorySubscription struct {
	broker *MemoryBroker
	topics []string
	ch     chan live.Event

	mu     sync.Mutex
	closed bool
}

// deliver never blocks: a pending event already tells the subscriber to refresh.
func (s *memorySubscription) deliver(evt live.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- evt:
	default:
	}
}

func (s *memorySubscription) C() <-chan live.Event { return s.ch }

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.broker.unsubscribe(s)
	return nil
}
