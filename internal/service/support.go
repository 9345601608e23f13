package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/clock"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// Base bundles the collaborators every use case shares.
type Base struct {
	Clock      clock.Clock
	Audit      repository.AuditRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

func (b Base) now() time.Time {
	if b.Clock == nil {
		return time.Now().UTC()
	}
	return b.Clock.Now()
}

func (b Base) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// recordAudit writes entry after the mutation it describes was persisted.
// A failed write is logged and does not undo the mutation.
func (b Base) recordAudit(ctx context.Context, entry *domain.AuditEntry) {
	if b.Audit == nil {
		return
	}
	if err := b.Audit.Save(ctx, entry); err != nil {
		b.logger().Error("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", string(entry.EntityType)),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// publish hands drained events to the dispatcher. Delivery failures are
// logged only; the persisted state stays authoritative.
func (b Base) publish(ctx context.Context, pending []domain.DomainEvent) {
	if b.Dispatcher == nil || len(pending) == 0 {
		return
	}
	if err := b.Dispatcher.PublishAll(ctx, pending); err != nil {
		b.logger().Warn("event publish failed", zap.Int("events", len(pending)), zap.Error(err))
	}
}

// notFound converts a missing row into a NotFoundError for resource.
func notFound(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return err
}
