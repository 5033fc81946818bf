package domain

import "time"

type ResourceID string

type AccessClass string

const (
	AccessClassFree AccessClass = "free"
	AccessClassPaid AccessClass = "paid"
)

type ResourceStatus string

const (
	ResourceStatusPublished   ResourceStatus = "published"
	ResourceStatusUnpublished ResourceStatus = "unpublished"
	ResourceStatusOwnerClosed ResourceStatus = "owner_closed"
)

type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
	MediaKindImage MediaKind = "image"
)

// Resource describes one content item as the access control plane sees it.
// The content-management subsystem owns and mutates it; here it is an
// immutable input to a single decision.
type Resource struct {
	ID           ResourceID
	OwnerID      CreatorID
	AccessClass  AccessClass
	Status       ResourceStatus
	MediaKind    MediaKind
	MediaLocator string
	PublishedAt  time.Time
}

// Servable reports whether the resource is in a publicly servable state.
// Unavailability is absolute: it is checked before entitlement so that an
// unpublished item never leaks through a paywall message.
func (r *Resource) Servable() bool {
	return r.Status == ResourceStatusPublished && r.MediaLocator != ""
}
