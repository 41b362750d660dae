package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, message.([]byte))
	return redis.NewIntResult(1, f.err)
}

func TestRedisRelayPublishesJSON(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &fakePublisher{}
	relay := NewRedisRelay(pub, "transport.events", 8, nil)

	require.NoError(t, relay.Handle(context.Background(), Event{ID: "1", Type: EventTripSubmitted, EntityID: "t1"}))
	require.NoError(t, relay.Handle(context.Background(), Event{ID: "2", Type: EventMaintenanceAdvanced, EntityID: "m1"}))
	relay.Close()

	require.Len(t, pub.messages, 2)
	assert.Equal(t, []string{"transport.events", "transport.events"}, pub.channels)

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.messages[1], &decoded))
	assert.Equal(t, EventMaintenanceAdvanced, decoded.Type)
	assert.Equal(t, "m1", decoded.EntityID)
}

func TestRedisRelayRejectsAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	relay := NewRedisRelay(&fakePublisher{}, "ch", 1, nil)
	relay.Close()
	relay.Close()

	err := relay.Handle(context.Background(), Event{ID: "late"})
	assert.ErrorIs(t, err, ErrRelayClosed)
}

func TestRedisRelaySurvivesPublishErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &fakePublisher{err: errors.New("connection refused")}
	relay := NewRedisRelay(pub, "ch", 4, nil)
	require.NoError(t, relay.Handle(context.Background(), Event{ID: "1"}))
	require.NoError(t, relay.Handle(context.Background(), Event{ID: "2"}))
	relay.Close()

	assert.Len(t, pub.messages, 2)
}
