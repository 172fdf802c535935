package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlacklistRepository reads revoked tokens written by the auth service on logout.
type BlacklistRepository struct {
	collection *mongo.Collection
}

func NewBlacklistRepository(db *mongo.Database) *BlacklistRepository {
	return &BlacklistRepository{collection: db.Collection(blacklistCollection)}
}

func (r *BlacklistRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"token": token}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr("check token blacklist", err)
	}
	return n > 0, nil
}
