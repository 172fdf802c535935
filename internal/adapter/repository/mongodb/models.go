package mongodb

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Rent        float64              `bson:"rent"`
	Rooms       domain.Rooms         `bson:"rooms"`
	Location    string               `bson:"location"`
	Status      domain.ListingStatus `bson:"status"`
	Media       []string             `bson:"media"`
	User        primitive.ObjectID   `bson:"user"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type cleanupIntentDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Locator       string             `bson:"locator"`
	ListingID     string             `bson:"listingId,omitempty"`
	Reason        string             `bson:"reason"`
	Attempts      int                `bson:"attempts"`
	LastError     string             `bson:"lastError,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	NextAttemptAt time.Time          `bson:"nextAttemptAt"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	var (
		docID primitive.ObjectID
		err   error
	)
	if l.ID != "" {
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing ID %q: %w", l.ID, err)
		}
	}
	owner, err := primitive.ObjectIDFromHex(l.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner ID %q: %w", l.OwnerID, err)
	}

	media := l.Media
	if media == nil {
		media = []string{}
	}

	return &listingDocument{
		ID:          docID,
		Title:       l.Title,
		Description: l.Description,
		Rent:        l.Rent,
		Rooms:       l.Rooms,
		Location:    l.Location,
		Status:      l.Status,
		Media:       media,
		User:        owner,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	return &domain.Listing{
		ID:          d.ID.Hex(),
		OwnerID:     d.User.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Rent:        d.Rent,
		Rooms:       d.Rooms,
		Location:    d.Location,
		Status:      d.Status,
		Media:       d.Media,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainListing(doc))
	}
	return out
}

func toCleanupIntentDocument(ci *domain.CleanupIntent) *cleanupIntentDocument {
	return &cleanupIntentDocument{
		Locator:       ci.Locator,
		ListingID:     ci.ListingID,
		Reason:        ci.Reason,
		Attempts:      ci.Attempts,
		LastError:     ci.LastError,
		CreatedAt:     ci.CreatedAt,
		NextAttemptAt: ci.NextAttemptAt,
	}
}

func toDomainCleanupIntent(d *cleanupIntentDocument) *domain.CleanupIntent {
	return &domain.CleanupIntent{
		ID:            d.ID.Hex(),
		Locator:       d.Locator,
		ListingID:     d.ListingID,
		Reason:        d.Reason,
		Attempts:      d.Attempts,
		LastError:     d.LastError,
		CreatedAt:     d.CreatedAt,
		NextAttemptAt: d.NextAttemptAt,
	}
}
