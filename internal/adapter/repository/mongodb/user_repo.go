package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// UserRepository reads the users collection owned by the auth service and maintains
// each user's "listings" array.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection(usersCollection),
		logger:     log.Named("user_repo"),
	}
}

func (r *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr("count users", err)
	}
	return n > 0, nil
}

func (r *UserRepository) AppendListing(ctx context.Context, userID, listingID string) error {
	return r.modifyListings(ctx, "$push", userID, listingID)
}

func (r *UserRepository) RemoveListing(ctx context.Context, userID, listingID string) error {
	return r.modifyListings(ctx, "$pull", userID, listingID)
}

func (r *UserRepository) modifyListings(ctx context.Context, op, userID, listingID string) error {
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("%w: malformed user id %q", domain.ErrOwnerNotFound, userID)
	}
	listingObjID, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return fmt.Errorf("%w: malformed listing id %q", domain.ErrInternal, listingID)
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userObjID},
		bson.M{op: bson.M{"listings": listingObjID}},
	)
	if err != nil {
		r.logger.Error("Failed to update user listings", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
		return storeErr("update user listings", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOwnerNotFound, userID)
	}
	return nil
}

func (r *UserRepository) GetEmailByID(ctx context.Context, userID string) (string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("%w: malformed user id %q", domain.ErrOwnerNotFound, userID)
	}

	var userDoc struct {
		Email string `bson:"email"`
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": objID},
		options.FindOne().SetProjection(bson.M{"email": 1})).Decode(&userDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("%w: %s", domain.ErrOwnerNotFound, userID)
		}
		return "", storeErr("find user email", err)
	}
	return userDoc.Email, nil
}
