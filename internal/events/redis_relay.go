package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRelayClosed is returned when an event is offered after Close.
var ErrRelayClosed = errors.New("event relay closed")

// Publisher is the subset of the go-redis client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay forwards domain events as JSON to a Redis pub/sub channel.
// Events are queued and published from a single goroutine so request
// handlers never wait on Redis.
type RedisRelay struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
	timeout   time.Duration

	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRedisRelay starts a relay with a queue of the given size.
func NewRedisRelay(publisher Publisher, channel string, buffer int, logger *zap.Logger) *RedisRelay {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &RedisRelay{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		timeout:   2 * time.Second,
		queue:     make(chan Event, buffer),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// Handle enqueues the event. It is an EventHandler and never blocks; a full
// queue drops the event with a warning.
func (r *RedisRelay) Handle(_ context.Context, event Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.queue <- event:
	default:
		r.logger.Warn("event relay queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain.
func (r *RedisRelay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *RedisRelay) run() {
	defer close(r.done)
	for event := range r.queue {
		r.publish(event)
	}
}

func (r *RedisRelay) publish(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("encode event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.publisher.Publish(ctx, r.channel, body).Err(); err != nil {
		r.logger.Warn("publish event to redis",
			zap.String("channel", r.channel),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
