package redis

import (
	"context"
	"fmt"

	"mediagate/internal/core/domain"
	"mediagate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisEntitlementRepository reads subscription and follow state written
// by the billing subsystem. Snapshots are read fresh per call, never
// cached: revocation must be visible on the next revalidation tick.
type RedisEntitlementRepository struct {
	client *redis.Client
}

func NewRedisEntitlementRepository(client *redis.Client) ports.EntitlementRepository {
	return &RedisEntitlementRepository{client: client}
}

func (r *RedisEntitlementRepository) subscriptionsKey(owner domain.CreatorID) string {
	return "mediagate:subscribers:" + string(owner)
}

func (r *RedisEntitlementRepository) followersKey(owner domain.CreatorID) string {
	return "mediagate:followers:" + string(owner)
}

func (r *RedisEntitlementRepository) GetSnapshot(ctx context.Context, principal domain.PrincipalID, owner domain.CreatorID) (domain.EntitlementSnapshot, error) {
	pipe := r.client.Pipeline()
	subCmd := pipe.SIsMember(ctx, r.subscriptionsKey(owner), string(principal))
	followCmd := pipe.SIsMember(ctx, r.followersKey(owner), string(principal))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.EntitlementSnapshot{}, fmt.Errorf("failed to read entitlement snapshot: %w", err)
	}

	return domain.EntitlementSnapshot{
		HasActiveOrTrialingSubscription: subCmd.Val(),
		HasFreeFollow:                   followCmd.Val(),
	}, nil
}

// GrantSubscription adds a principal to a creator's subscriber set.
func (r *RedisEntitlementRepository) GrantSubscription(ctx context.Context, principal domain.PrincipalID, owner domain.CreatorID) error {
	if err := r.client.SAdd(ctx, r.subscriptionsKey(owner), string(principal)).Err(); err != nil {
		return fmt.Errorf("failed to grant subscription: %w", err)
	}
	return nil
}

// RevokeSubscription removes a principal from a creator's subscriber set.
func (r *RedisEntitlementRepository) RevokeSubscription(ctx context.Context, principal domain.PrincipalID, owner domain.CreatorID) error {
	if err := r.client.SRem(ctx, r.subscriptionsKey(owner), string(principal)).Err(); err != nil {
		return fmt.Errorf("failed to revoke subscription: %w", err)
	}
	return nil
}
