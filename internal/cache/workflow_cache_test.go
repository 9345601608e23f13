package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
)

type stubWorkflowRepo struct {
	latest      map[string]*domain.Workflow
	latestCalls int
	saved       []*domain.Workflow
}

func (s *stubWorkflowRepo) Save(_ context.Context, wf *domain.Workflow) error {
	s.saved = append(s.saved, wf)
	s.latest[wf.AreaID] = wf
	return nil
}

func (s *stubWorkflowRepo) FindLatestByAreaID(_ context.Context, areaID string) (*domain.Workflow, error) {
	s.latestCalls++
	wf, ok := s.latest[areaID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return wf, nil
}

func (s *stubWorkflowRepo) FindByAreaID(_ context.Context, areaID string) ([]domain.Workflow, error) {
	if wf, ok := s.latest[areaID]; ok {
		return []domain.Workflow{*wf}, nil
	}
	return nil, nil
}

func newTestCache(t *testing.T, base *stubWorkflowRepo) (*WorkflowCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewWorkflowCache(base, client, time.Minute, zap.NewNop()), mr
}

func sampleWorkflow(version int) *domain.Workflow {
	graph := domain.NewTransitionGraph()
	graph.Set(domain.TicketStatusOpen, domain.TicketStatusInProgress)
	graph.Set(domain.TicketStatusInProgress, domain.TicketStatusClosed)
	required := domain.NewRequiredFields()
	required.Set(domain.TicketStatusClosed, domain.FieldResolutionSummary)
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return &domain.Workflow{
		ID:             "wf-1",
		AreaID:         "area-1",
		Version:        version,
		Transitions:    graph,
		RequiredFields: required,
		CreatedBy:      "admin-1",
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestWorkflowCacheMissThenHit(t *testing.T) {
	base := &stubWorkflowRepo{latest: map[string]*domain.Workflow{"area-1": sampleWorkflow(1)}}
	cache, mr := newTestCache(t, base)
	ctx := context.Background()

	first, err := cache.FindLatestByAreaID(ctx, "area-1")
	require.NoError(t, err)
	second, err := cache.FindLatestByAreaID(ctx, "area-1")
	require.NoError(t, err)

	assert.Equal(t, 1, base.latestCalls)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Transitions.Keys(), second.Transitions.Keys())
	assert.Equal(t, []string{domain.FieldResolutionSummary}, second.RequiredFields.For(domain.TicketStatusClosed))
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	ttl := mr.TTL(workflowCacheKey("area-1"))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)
}

func TestWorkflowCacheSaveEvicts(t *testing.T) {
	base := &stubWorkflowRepo{latest: map[string]*domain.Workflow{"area-1": sampleWorkflow(1)}}
	cache, mr := newTestCache(t, base)
	ctx := context.Background()

	_, err := cache.FindLatestByAreaID(ctx, "area-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(workflowCacheKey("area-1")))

	require.NoError(t, cache.Save(ctx, sampleWorkflow(2)))
	assert.False(t, mr.Exists(workflowCacheKey("area-1")))

	latest, err := cache.FindLatestByAreaID(ctx, "area-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, 2, base.latestCalls)
}

func TestWorkflowCacheDoesNotCacheMisses(t *testing.T) {
	base := &stubWorkflowRepo{latest: map[string]*domain.Workflow{}}
	cache, mr := newTestCache(t, base)

	_, err := cache.FindLatestByAreaID(context.Background(), "area-9")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.False(t, mr.Exists(workflowCacheKey("area-9")))
}

func TestWorkflowCacheDropsCorruptEntry(t *testing.T) {
	base := &stubWorkflowRepo{latest: map[string]*domain.Workflow{"area-1": sampleWorkflow(4)}}
	cache, mr := newTestCache(t, base)
	require.NoError(t, mr.Set(workflowCacheKey("area-1"), "{not json"))

	wf, err := cache.FindLatestByAreaID(context.Background(), "area-1")
	require.NoError(t, err)
	assert.Equal(t, 4, wf.Version)
	assert.Equal(t, 1, base.latestCalls)
}

func TestWorkflowCacheWithoutRedis(t *testing.T) {
	base := &stubWorkflowRepo{latest: map[string]*domain.Workflow{"area-1": sampleWorkflow(1)}}
	cache := NewWorkflowCache(base, nil, time.Minute, nil)

	_, err := cache.FindLatestByAreaID(context.Background(), "area-1")
	require.NoError(t, err)
	_, err = cache.FindLatestByAreaID(context.Background(), "area-1")
	require.NoError(t, err)
	assert.Equal(t, 2, base.latestCalls)
}
