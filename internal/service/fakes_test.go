package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/servicedesk/internal/clock"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// journal records side effects in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	return &domain.Ticket{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            t.Status,
		Priority:          t.Priority,
		RequesterID:       t.RequesterID,
		AssigneeID:        t.AssigneeID,
		AreaID:            t.AreaID,
		ResolutionSummary: t.ResolutionSummary,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		FirstResponseAt:   t.FirstResponseAt,
		ResolvedAt:        t.ResolvedAt,
		ClosedAt:          t.ClosedAt,
		SLATargetAt:       t.SLATargetAt,
		SLABreached:       t.SLABreached,
		Version:           t.Version,
	}
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	journal *journal
	items   map[string]*domain.Ticket
	saveErr error
}

func newFakeTicketRepo(j *journal) *fakeTicketRepo {
	return &fakeTicketRepo{journal: j, items: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Save(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	t.Version = 1
	r.items[t.ID] = cloneTicket(t)
	r.journal.add("ticket.save")
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.items[t.ID]
	if !ok || stored.Version != t.Version {
		return &domain.ConcurrentModificationError{Entity: "ticket", ID: t.ID}
	}
	t.Version++
	r.items[t.ID] = cloneTicket(t)
	r.journal.add("ticket.update")
	return nil
}

func (r *fakeTicketRepo) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(t), nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.items {
		if filter.AreaID != nil && t.AreaID != *filter.AreaID {
			continue
		}
		if filter.RequesterID != nil && t.RequesterID != *filter.RequesterID {
			continue
		}
		out = append(out, *cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTicketRepo) FindByFilters(_ context.Context, filter repository.MetricsFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.items {
		if filter.AreaID != nil && t.AreaID != *filter.AreaID {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, *cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTicketRepo) CountByAreaAndStatus(_ context.Context, areaID string, statuses []domain.TicketStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.items {
		if t.AreaID != areaID {
			continue
		}
		for _, s := range statuses {
			if t.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

// put stores a ticket directly, bypassing the journal.
func (r *fakeTicketRepo) put(t *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.Version == 0 {
		t.Version = 1
	}
	r.items[t.ID] = cloneTicket(t)
}

type fakeAreaRepo struct {
	mu    sync.Mutex
	items map[string]domain.Area
}

func newFakeAreaRepo() *fakeAreaRepo {
	return &fakeAreaRepo{items: make(map[string]domain.Area)}
}

func (r *fakeAreaRepo) Save(_ context.Context, a *domain.Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[a.ID] = *a
	return nil
}

func (r *fakeAreaRepo) Update(_ context.Context, a *domain.Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[a.ID] = *a
	return nil
}

func (r *fakeAreaRepo) FindByID(_ context.Context, id string) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r *fakeAreaRepo) List(_ context.Context, activeOnly bool) ([]domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Area
	for _, a := range r.items {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeSLARepo struct {
	mu    sync.Mutex
	items map[string]domain.SLA
}

func newFakeSLARepo() *fakeSLARepo {
	return &fakeSLARepo{items: make(map[string]domain.SLA)}
}

func (r *fakeSLARepo) Save(_ context.Context, sla *domain.SLA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[sla.AreaID] = *sla
	return nil
}

func (r *fakeSLARepo) FindByAreaID(_ context.Context, areaID string) (*domain.SLA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sla, ok := r.items[areaID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sla, nil
}

type fakeWorkflowRepo struct {
	mu    sync.Mutex
	items map[string][]domain.Workflow
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{items: make(map[string][]domain.Workflow)}
}

func (r *fakeWorkflowRepo) Save(_ context.Context, wf *domain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items[wf.AreaID] {
		if existing.Version == wf.Version {
			return errors.New("duplicate workflow version")
		}
	}
	r.items[wf.AreaID] = append(r.items[wf.AreaID], *wf)
	return nil
}

func (r *fakeWorkflowRepo) FindLatestByAreaID(_ context.Context, areaID string) (*domain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.items[areaID]
	if len(versions) == 0 {
		return nil, pgx.ErrNoRows
	}
	latest := versions[len(versions)-1]
	return &latest, nil
}

func (r *fakeWorkflowRepo) FindByAreaID(_ context.Context, areaID string) ([]domain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.items[areaID]
	out := make([]domain.Workflow, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		out = append(out, versions[i])
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	journal *journal
	entries []domain.AuditEntry
	err     error
}

func (r *fakeAuditRepo) Save(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *entry)
	if r.journal != nil {
		r.journal.add("audit:" + string(entry.Action))
	}
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType domain.AuditEntityType, entityID string) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Save(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

// harness wires every service against the fakes.
type harness struct {
	clock     *clock.Fixed
	journal   *journal
	logs      *observer.ObservedLogs
	published []domain.DomainEvent

	tickets   *fakeTicketRepo
	areas     *fakeAreaRepo
	slas      *fakeSLARepo
	workflows *fakeWorkflowRepo
	audit     *fakeAuditRepo
	users     *fakeUserRepo

	dispatcher events.Dispatcher
	base       Base

	ticketSvc   *TicketService
	areaSvc     *AreaService
	slaSvc      *SLAService
	workflowSvc *WorkflowService
	metricsSvc  *MetricsService
}

var (
	baseTime = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	agent    = domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	patient  = domain.Actor{ID: "requester-1", Role: domain.RoleRequester}
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		clock:     clock.NewFixed(baseTime),
		journal:   &journal{},
		logs:      logs,
		areas:     newFakeAreaRepo(),
		slas:      newFakeSLARepo(),
		workflows: newFakeWorkflowRepo(),
		users:     newFakeUserRepo(),
	}
	h.tickets = newFakeTicketRepo(h.journal)
	h.audit = &fakeAuditRepo{journal: h.journal}
	h.dispatcher = events.NewInMemoryDispatcher(nil)
	h.dispatcher.SubscribeAll(func(_ context.Context, event domain.DomainEvent) error {
		h.journal.add("publish:" + string(event.Type))
		h.published = append(h.published, event)
		return nil
	})
	h.base = Base{Clock: h.clock, Audit: h.audit, Dispatcher: h.dispatcher, Logger: zap.New(core)}

	h.ticketSvc = NewTicketService(TicketDependencies{
		Base:         h.base,
		TicketRepo:   h.tickets,
		AreaRepo:     h.areas,
		SLARepo:      h.slas,
		WorkflowRepo: h.workflows,
	})
	h.areaSvc = NewAreaService(AreaDependencies{Base: h.base, AreaRepo: h.areas, TicketRepo: h.tickets})
	h.slaSvc = NewSLAService(SLADependencies{Base: h.base, AreaRepo: h.areas, SLARepo: h.slas})
	h.workflowSvc = NewWorkflowService(WorkflowDependencies{Base: h.base, AreaRepo: h.areas, WorkflowRepo: h.workflows})
	h.metricsSvc = NewMetricsService(h.base, h.tickets)
	return h
}

// newArea creates an active area with the given SLA.
func (h *harness) newArea(t *testing.T, responseMinutes, resolutionMinutes int) *domain.Area {
	t.Helper()
	ctx := context.Background()
	area, err := h.areaSvc.CreateArea(ctx, admin, "Radiology", "imaging devices")
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	if _, err := h.slaSvc.ConfigureSLA(ctx, admin, area.ID, responseMinutes, resolutionMinutes); err != nil {
		t.Fatalf("configure sla: %v", err)
	}
	return area
}

func (h *harness) eventTypes() []domain.EventType {
	out := make([]domain.EventType, 0, len(h.published))
	for _, e := range h.published {
		out = append(out, e.Type)
	}
	return out
}

func (h *harness) reset() {
	h.journal = &journal{}
	h.tickets.journal = h.journal
	h.audit.journal = h.journal
	h.published = nil
}
