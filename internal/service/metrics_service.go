package service

import (
	"context"
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/export"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// MetricsService reports SLA compliance over persisted tickets.
type MetricsService struct {
	Base
	tickets repository.TicketRepository
}

// MetricsQuery narrows the reported tickets. All fields are optional.
type MetricsQuery struct {
	AreaID *string
	From   *time.Time
	To     *time.Time
}

// NewMetricsService constructs the service.
func NewMetricsService(base Base, tickets repository.TicketRepository) *MetricsService {
	return &MetricsService{Base: base, tickets: tickets}
}

// ComputeSLAMetrics aggregates the tickets created inside the window. The
// stored breach flag is used as-is.
func (s *MetricsService) ComputeSLAMetrics(ctx context.Context, query MetricsQuery) (domain.SLAMetrics, error) {
	tickets, err := s.load(ctx, query)
	if err != nil {
		return domain.SLAMetrics{}, err
	}
	return domain.ComputeSLAMetrics(tickets), nil
}

// ExportSLAReport renders the metrics and the underlying tickets as an xlsx workbook.
func (s *MetricsService) ExportSLAReport(ctx context.Context, query MetricsQuery) ([]byte, error) {
	tickets, err := s.load(ctx, query)
	if err != nil {
		return nil, err
	}
	scope := export.ReportScope{
		AreaID:      query.AreaID,
		From:        query.From,
		To:          query.To,
		GeneratedAt: s.now(),
	}
	return export.RenderSLAReport(scope, domain.ComputeSLAMetrics(tickets), tickets)
}

func (s *MetricsService) load(ctx context.Context, query MetricsQuery) ([]domain.Ticket, error) {
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, domain.NewValidationError("from", "must not be after to")
	}
	return s.tickets.FindByFilters(ctx, repository.MetricsFilter{
		AreaID: query.AreaID,
		From:   query.From,
		To:     query.To,
	})
}
