package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
)

// NotificationService turns domain events into log lines and webhook calls.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	source     string
	http       *resty.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, source string) *NotificationService {
	// Delivery runs inside the request that saved the ticket: one attempt,
	// bounded by the webhook timeout.
	client := resty.New().
		SetTimeout(cfg.WebhookTimeout()).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		source:     source,
		http:       client,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(domain.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(domain.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(domain.EventTicketClosed, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(domain.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(domain.EventWorkflowConfigured, n.handleConfiguration)
	n.dispatcher.Subscribe(domain.EventSLAConfigured, n.handleConfiguration)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event domain.DomainEvent) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.AggregateID), zap.Any("payload", event.Payload))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event domain.DomainEvent) error {
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.AggregateID),
		zap.String("event_type", string(event.Type)),
		zap.Any("payload", event.Payload))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event domain.DomainEvent) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.AggregateID), zap.Any("payload", event.Payload))
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) handleConfiguration(ctx context.Context, event domain.DomainEvent) error {
	n.logger.Info("AreaConfigurationChanged",
		zap.String("area_id", event.AggregateID),
		zap.String("event_type", string(event.Type)))
	return nil
}

func (n *NotificationService) sendWebhook(ctx context.Context, event domain.DomainEvent) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	body, err := events.NewEnvelope(n.source, event).Encode()
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	resp, err := n.http.R().
		SetContext(ctx).
		SetHeader("X-Event-Type", string(event.Type)).
		SetBody(body).
		Post(url)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("webhook %s: %w", event.Type, err)
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected event",
			zap.String("event_id", event.ID),
			zap.Int("status_code", resp.StatusCode()))
		return fmt.Errorf("webhook %s: unexpected status %d", event.Type, resp.StatusCode())
	}
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	return nil
}
