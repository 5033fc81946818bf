package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisResourceRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisResourceRepository(client *redis.Client) ports.ResourceRepository {
	return &RedisResourceRepository{
		client: client,
		prefix: "mediagate:resource:",
	}
}

func (r *RedisResourceRepository) resourceKey(id domain.ResourceID) string {
	return r.prefix + string(id)
}

func (r *RedisResourceRepository) ownerKey(id domain.CreatorID) string {
	return "mediagate:owner:" + string(id)
}

func (r *RedisResourceRepository) GetByID(ctx context.Context, id domain.ResourceID) (*domain.Resource, error) {
	data, err := r.client.Get(ctx, r.resourceKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource from Redis: %w", err)
	}

	var resource domain.Resource
	if err := json.Unmarshal([]byte(data), &resource); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}
	return &resource, nil
}

func (r *RedisResourceRepository) GetOwnerSummary(ctx context.Context, owner domain.CreatorID) (*domain.OwnerSummary, error) {
	data, err := r.client.Get(ctx, r.ownerKey(owner)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get owner summary from Redis: %w", err)
	}

	var summary domain.OwnerSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal owner summary: %w", err)
	}
	return &summary, nil
}

// PutResource stores a resource. The content-management subsystem owns
// the canonical copy; this is its projection into the access plane.
func (r *RedisResourceRepository) PutResource(ctx context.Context, resource *domain.Resource) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}
	if err := r.client.Set(ctx, r.resourceKey(resource.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set resource in Redis: %w", err)
	}
	return nil
}

// PutOwnerSummary stores a creator summary.
func (r *RedisResourceRepository) PutOwnerSummary(ctx context.Context, summary *domain.OwnerSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal owner summary: %w", err)
	}
	if err := r.client.Set(ctx, r.ownerKey(summary.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set owner summary in Redis: %w", err)
	}
	return nil
}
