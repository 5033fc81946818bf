package memory

import (
	"context"
	"errors"
	"testing"

	"mediagate/internal/core/domain"
)

func TestResourceRepository(t *testing.T) {
	repo := NewMemoryResourceRepository()
	repo.AddResource(&domain.Resource{
		ID:           "post-1",
		OwnerID:      "creator-1",
		AccessClass:  domain.AccessClassPaid,
		Status:       domain.ResourceStatusPublished,
		MediaKind:    domain.MediaKindAudio,
		MediaLocator: "creator-1/post-1/track.mp3",
	})
	repo.AddOwner(&domain.OwnerSummary{ID: "creator-1", DisplayName: "Creator", MonthlyPrice: 500})

	got, err := repo.GetByID(context.Background(), "post-1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.OwnerID != "creator-1" || got.MediaKind != domain.MediaKindAudio {
		t.Errorf("unexpected resource: %+v", got)
	}

	// Returned value is a copy; mutating it must not leak back.
	got.Status = domain.ResourceStatusUnpublished
	again, _ := repo.GetByID(context.Background(), "post-1")
	if again.Status != domain.ResourceStatusPublished {
		t.Error("GetByID must return a copy")
	}

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}

	owner, err := repo.GetOwnerSummary(context.Background(), "creator-1")
	if err != nil {
		t.Fatalf("GetOwnerSummary() error: %v", err)
	}
	if owner.MonthlyPrice != 500 {
		t.Errorf("unexpected owner summary: %+v", owner)
	}
}

func TestEntitlementRepositoryRevocationIsImmediate(t *testing.T) {
	repo := NewMemoryEntitlementRepository()
	ctx := context.Background()

	snap, err := repo.GetSnapshot(ctx, "u1", "creator-1")
	if err != nil {
		t.Fatalf("GetSnapshot() error: %v", err)
	}
	if snap.HasActiveOrTrialingSubscription || snap.HasFreeFollow {
		t.Errorf("fresh principal must have no entitlements, got %+v", snap)
	}

	repo.GrantSubscription("u1", "creator-1")
	snap, _ = repo.GetSnapshot(ctx, "u1", "creator-1")
	if !snap.HasActiveOrTrialingSubscription {
		t.Error("expected subscription after grant")
	}

	repo.RevokeSubscription("u1", "creator-1")
	snap, _ = repo.GetSnapshot(ctx, "u1", "creator-1")
	if snap.HasActiveOrTrialingSubscription {
		t.Error("revocation must be visible on the next snapshot")
	}

	repo.SetFollow("u1", "creator-1", true)
	snap, _ = repo.GetSnapshot(ctx, "u1", "creator-1")
	if !snap.HasFreeFollow {
		t.Error("expected follow after SetFollow(true)")
	}

	repo.SetFollow("u1", "creator-1", false)
	snap, _ = repo.GetSnapshot(ctx, "u1", "creator-1")
	if snap.HasFreeFollow {
		t.Error("expected no follow after SetFollow(false)")
	}
}
