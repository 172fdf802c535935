package usecase

import (
	"context"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
)

// Storage is the media store. Put returns the public locator of the stored object.
type Storage interface {
	Put(ctx context.Context, data []byte, contentType, originalName string) (string, error)
	Delete(ctx context.Context, locator string) error
}

// ListingCache is a read-through cache for single listings. Get returns nil, nil on a miss.
type ListingCache interface {
	Get(ctx context.Context, id string) (*domain.Listing, error)
	Set(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Notifier interface {
	SendListingCreated(ctx context.Context, toEmail, listingTitle string) error
}
