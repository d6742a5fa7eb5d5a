package livesvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/live"
)

const channelPrefix = "classesx:live:"

// RedisBroker fans events out across API instances through redis pub/sub.
type RedisBroker struct {
	rdb    *redis.Client
	logger core.Logger
}

var _ live.Broker = (*RedisBroker)(nil)

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func NewRedisBroker(rdb *redis.Client, logger core.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger}
}

// Ping checks that redis is reachable.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return errors.Wrap(b.rdb.Ping(ctx).Err(), "pinging redis")
}

func (b *RedisBroker) Publish(ctx context.Context, topic string) error {
	data, err := json.Marshal(live.Event{Topic: topic, At: time.Now().UTC()})
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	if err := b.rdb.Publish(ctx, channelPrefix+topic, data).Err(); err != nil {
		return errors.Wrapf(err, "publishing to %q", topic)
	}
	publishedCounter.WithLabelValues("redis").Inc()
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topics ...string) (live.Subscription, error) {
	channels := make([]string, 0, len(topics))
	for _, topic := range topics {
		channels = append(channels, channelPrefix+topic)
	}

	ps := b.rdb.Subscribe(ctx, channels...)
	// wait for the subscription to be confirmed so no event published after Subscribe returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, "subscribing")
	}

	sub := &redisSubscription{
		ps:   ps,
		ch:   make(chan live.Event, 1),
		done: make(chan struct{}),
	}
	go sub.pump(b.logger)
	subscriptionsGauge.Add(1)
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	ch   chan live.Event
	done chan struct{}
	once sync.Once
}

func (s *redisSubscription) pump(logger core.Logger) {
	defer close(s.ch)
	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var evt live.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Warn("dropping malformed live event", errors.Wrap(err, "decoding event"))
				continue
			}
			select {
			case s.ch <- evt:
			default: // a refresh is already pending
			}
		}
	}
}

func (s *redisSubscription) C() <-chan live.Event { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		subscriptionsGauge.Sub(1)
	})
	return err
}
