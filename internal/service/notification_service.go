package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTripSubmitted, n.handleTripSubmitted)
	n.dispatcher.Subscribe(events.EventTripStatusChanged, n.handleTripStatusChanged)
	n.dispatcher.Subscribe(events.EventScheduleStatusChanged, n.handleScheduleStatusChanged)
	n.dispatcher.Subscribe(events.EventMaintenanceReported, n.handleMaintenanceReported)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleTripSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("TripSubmitted", zap.String("trip_id", event.EntityID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTripStatusChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TripStatusChangedPayload)
	n.logger.Info("TripStatusChanged",
		zap.String("trip_id", event.EntityID),
		zap.String("reference", payload.Reference),
		zap.String("status", string(payload.NewStatus)))
	n.sendEmailNotificationStub(ctx, event, payload.RequesterID)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleScheduleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ScheduleStatusChanged", zap.String("event_id", event.EntityID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleMaintenanceReported(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.MaintenancePayload)
	n.logger.Info("MaintenanceReported",
		zap.String("ticket_id", event.EntityID),
		zap.String("vehicle_id", payload.VehicleID),
		zap.String("priority", string(payload.Priority)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetRequestedPayload)
	n.logger.Info("PasswordResetRequested", zap.String("user_id", event.EntityID), zap.Time("expires_at", payload.ExpiresAt))
	n.sendEmailNotificationStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || recipient == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", recipient),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
