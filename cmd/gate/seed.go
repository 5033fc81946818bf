package main

import (
	"time"

	"mediagate/internal/core/domain"
	"mediagate/internal/infrastructure/repositories/memory"
)

// Local-development fixtures for the in-memory data layer: one creator,
// one free post, one paid post, and a subscriber named "alice".

func newSeededResourceRepository() *memory.MemoryResourceRepository {
	repo := memory.NewMemoryResourceRepository()

	repo.AddOwner(&domain.OwnerSummary{
		ID:           "creator-1",
		DisplayName:  "Demo Creator",
		MonthlyPrice: 500,
		TrialDays:    7,
	})
	repo.AddResource(&domain.Resource{
		ID:           "post-free",
		OwnerID:      "creator-1",
		AccessClass:  domain.AccessClassFree,
		Status:       domain.ResourceStatusPublished,
		MediaKind:    domain.MediaKindImage,
		MediaLocator: "creator-1/post-free/cover.jpg",
		PublishedAt:  time.Now().Add(-24 * time.Hour),
	})
	repo.AddResource(&domain.Resource{
		ID:           "post-paid",
		OwnerID:      "creator-1",
		AccessClass:  domain.AccessClassPaid,
		Status:       domain.ResourceStatusPublished,
		MediaKind:    domain.MediaKindVideo,
		MediaLocator: "creator-1/post-paid/master.m3u8",
		PublishedAt:  time.Now().Add(-1 * time.Hour),
	})

	return repo
}

func newSeededEntitlementRepository() *memory.MemoryEntitlementRepository {
	repo := memory.NewMemoryEntitlementRepository()
	repo.GrantSubscription("alice", "creator-1")
	return repo
}
