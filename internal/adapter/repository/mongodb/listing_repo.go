package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection(listingsCollection),
		logger:     log.Named("listing_repo"),
	}
}

// Create assigns a new ObjectID and timestamps, then inserts the listing.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	now := time.Now().UTC()
	listing.ID = primitive.NewObjectID().Hex()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	doc, err := toListingDocument(listing)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("InsertOne failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return storeErr("insert listing", err)
	}
	return nil
}

// FindByID returns ErrListingNotFound for malformed ids as well as missing documents.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed id %q", domain.ErrListingNotFound, id)
	}

	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domain.ErrListingNotFound, id)
		}
		return nil, storeErr("find listing", err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*domain.Listing{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, storeErr("find listings by owner", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("decode listings", err)
	}
	return toDomainListings(docs), nil
}

// Update overwrites the mutable fields of the listing. Owner and creation time never change.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	objID, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrListingNotFound, listing.ID)
	}
	listing.UpdatedAt = time.Now().UTC()

	media := listing.Media
	if media == nil {
		media = []string{}
	}
	set := bson.M{
		"title":       listing.Title,
		"description": listing.Description,
		"rent":        listing.Rent,
		"rooms":       listing.Rooms,
		"location":    listing.Location,
		"status":      listing.Status,
		"media":       media,
		"updatedAt":   listing.UpdatedAt,
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("UpdateOne failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return storeErr("update listing", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrListingNotFound, listing.ID)
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrListingNotFound, id)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return storeErr("delete listing", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrListingNotFound, id)
	}
	return nil
}
