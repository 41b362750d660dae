package worker

import (
	"github.com/spec-kit/campus-transport/internal/events"
)

// StartEventRelay forwards every published event to relay.
func StartEventRelay(dispatcher events.Dispatcher, relay *events.RedisRelay) {
	if dispatcher == nil || relay == nil {
		return
	}
	dispatcher.Subscribe(events.AllEvents, relay.Handle)
}
