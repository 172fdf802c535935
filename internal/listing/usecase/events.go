package usecase

import (
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
)

const (
	SubjectListingCreated      = "listing.created"
	SubjectListingUpdated      = "listing.updated"
	SubjectListingDeleted      = "listing.deleted"
	SubjectListingMediaRemoved = "listing.media_removed"
)

type ListingEvent struct {
	ListingID  string    `json:"listingId"`
	OwnerID    string    `json:"ownerId"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	Media      []string  `json:"media,omitempty"`
	Removed    []string  `json:"removed,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newListingEvent(l *domain.Listing) ListingEvent {
	return ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		Title:      l.Title,
		Status:     string(l.Status),
		Media:      l.Media,
		OccurredAt: time.Now().UTC(),
	}
}
