package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/observability"
	"github.com/spec-kit/campus-transport/internal/service"
)

func TestNotificationWorkerCountsAndNotifies(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()
	notifications := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "office@campus.edu"})

	StartNotificationWorker(dispatcher, notifications, metrics)

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventMaintenanceReported, EntityID: "m-1"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventMaintenanceReported, EntityID: "m-2"}))

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Events[string(events.EventMaintenanceReported)])
	assert.Equal(t, 2, logs.FilterMessage("MaintenanceReported").Len())
}

func TestStartersTolerateMissingCollaborators(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	assert.NotPanics(t, func() {
		StartNotificationWorker(nil, nil, nil)
		StartNotificationWorker(dispatcher, nil, nil)
		StartEventRelay(dispatcher, nil)
		StartEventRelay(nil, nil)
	})
	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTripSubmitted}))
}
