package worker

import (
	"context"

	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/observability"
	"github.com/spec-kit/campus-transport/internal/service"
)

// StartNotificationWorker subscribes the per-type event counter behind the
// metrics endpoint and registers the trip, schedule, maintenance and
// password reset notification handlers.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, metrics *observability.Metrics) {
	if dispatcher != nil && metrics != nil {
		dispatcher.Subscribe(events.AllEvents, func(_ context.Context, e events.Event) error {
			metrics.RecordEvent(string(e.Type))
			return nil
		})
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
}
