package domain

import (
	"context"
	"time"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	// FindByOwner returns the owner's listings, newest first.
	FindByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
}

// UserRepository maintains the owner side of the listing relation.
type UserRepository interface {
	Exists(ctx context.Context, userID string) (bool, error)
	// AppendListing returns ErrOwnerNotFound when no user matched.
	AppendListing(ctx context.Context, userID, listingID string) error
	RemoveListing(ctx context.Context, userID, listingID string) error
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

type CleanupIntentRepository interface {
	Record(ctx context.Context, intents ...*CleanupIntent) error
	FindDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*CleanupIntent, error)
	Resolve(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error
}

// TokenBlacklist answers whether a token was revoked by the auth service.
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}
