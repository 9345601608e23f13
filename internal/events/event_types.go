package events

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// TicketEventTypes are the events a ticket aggregate emits.
var TicketEventTypes = []domain.EventType{
	domain.EventTicketCreated,
	domain.EventTicketAssigned,
	domain.EventTicketStatusChanged,
	domain.EventTicketClosed,
}

// Envelope is the wire form of a domain event sent to Redis subscribers and
// webhooks.
type Envelope struct {
	ID          string           `json:"id"`
	Type        domain.EventType `json:"type"`
	Source      string           `json:"source"`
	AggregateID string           `json:"aggregate_id"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Payload     any              `json:"payload"`
}

// NewEnvelope wraps event for delivery.
func NewEnvelope(source string, event domain.DomainEvent) Envelope {
	return Envelope{
		ID:          event.ID,
		Type:        event.Type,
		Source:      source,
		AggregateID: event.AggregateID,
		OccurredAt:  event.OccurredAt.UTC(),
		Payload:     event.Payload,
	}
}

// Encode marshals the envelope.
func (e Envelope) Encode() ([]byte, error) {
	return sonic.Marshal(e)
}
