package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// WorkflowCache wraps a WorkflowRepository with a Redis read-through cache of
// the latest workflow per area. Saving a new version evicts the area's entry.
type WorkflowCache struct {
	base   repository.WorkflowRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.WorkflowRepository = (*WorkflowCache)(nil)

// NewWorkflowCache creates the caching wrapper. A nil client disables caching.
func NewWorkflowCache(base repository.WorkflowRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *WorkflowCache {
	if base == nil {
		panic("cache.NewWorkflowCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowCache{base: base, redis: client, ttl: ttl, logger: logger}
}

type cachedWorkflow struct {
	ID             string                 `json:"id"`
	AreaID         string                 `json:"area_id"`
	Version        int                    `json:"version"`
	Transitions    domain.TransitionGraph `json:"transitions"`
	RequiredFields domain.RequiredFields  `json:"required_fields"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Save stores the new version and evicts the cached one.
func (c *WorkflowCache) Save(ctx context.Context, wf *domain.Workflow) error {
	if err := c.base.Save(ctx, wf); err != nil {
		return err
	}
	c.Invalidate(ctx, wf.AreaID)
	return nil
}

func (c *WorkflowCache) FindLatestByAreaID(ctx context.Context, areaID string) (*domain.Workflow, error) {
	if wf, ok := c.load(ctx, areaID); ok {
		return wf, nil
	}
	wf, err := c.base.FindLatestByAreaID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, wf)
	return wf, nil
}

func (c *WorkflowCache) FindByAreaID(ctx context.Context, areaID string) ([]domain.Workflow, error) {
	return c.base.FindByAreaID(ctx, areaID)
}

// Invalidate drops the cached workflow of areaID. Failures are logged only.
func (c *WorkflowCache) Invalidate(ctx context.Context, areaID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, workflowCacheKey(areaID)).Err(); err != nil {
		c.logger.Warn("workflow cache invalidation failed", zap.String("area_id", areaID), zap.Error(err))
	}
}

func (c *WorkflowCache) load(ctx context.Context, areaID string) (*domain.Workflow, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, workflowCacheKey(areaID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("workflow cache read failed", zap.String("area_id", areaID), zap.Error(err))
		}
		return nil, false
	}
	var cached cachedWorkflow
	if err := sonic.ConfigStd.Unmarshal(data, &cached); err != nil {
		_ = c.redis.Del(ctx, workflowCacheKey(areaID)).Err()
		return nil, false
	}
	return &domain.Workflow{
		ID:             cached.ID,
		AreaID:         cached.AreaID,
		Version:        cached.Version,
		Transitions:    cached.Transitions,
		RequiredFields: cached.RequiredFields,
		CreatedBy:      cached.CreatedBy,
		CreatedAt:      cached.CreatedAt,
		UpdatedAt:      cached.UpdatedAt,
	}, true
}

func (c *WorkflowCache) store(ctx context.Context, wf *domain.Workflow) {
	if c.redis == nil || c.ttl == 0 || wf == nil {
		return
	}
	data, err := sonic.ConfigStd.Marshal(cachedWorkflow{
		ID:             wf.ID,
		AreaID:         wf.AreaID,
		Version:        wf.Version,
		Transitions:    wf.Transitions,
		RequiredFields: wf.RequiredFields,
		CreatedBy:      wf.CreatedBy,
		CreatedAt:      wf.CreatedAt,
		UpdatedAt:      wf.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, workflowCacheKey(wf.AreaID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("workflow cache write failed", zap.String("area_id", wf.AreaID), zap.Error(err))
	}
}

func workflowCacheKey(areaID string) string {
	return "workflow:latest:" + areaID
}
