package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CleanupIntentRepository stores objects that must still be removed from the media store.
type CleanupIntentRepository struct {
	collection *mongo.Collection
}

func NewCleanupIntentRepository(db *mongo.Database) *CleanupIntentRepository {
	return &CleanupIntentRepository{collection: db.Collection(cleanupIntentsCollection)}
}

func (r *CleanupIntentRepository) Record(ctx context.Context, intents ...*domain.CleanupIntent) error {
	if len(intents) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(intents))
	for _, ci := range intents {
		if ci.CreatedAt.IsZero() {
			ci.CreatedAt = now
		}
		if ci.NextAttemptAt.IsZero() {
			ci.NextAttemptAt = now
		}
		docs = append(docs, toCleanupIntentDocument(ci))
	}

	res, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return storeErr("insert cleanup intents", err)
	}
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(intents) {
			intents[i].ID = oid.Hex()
		}
	}
	return nil
}

// FindDue returns intents whose next attempt is due and that have not exhausted maxAttempts.
func (r *CleanupIntentRepository) FindDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*domain.CleanupIntent, error) {
	filter := bson.M{
		"nextAttemptAt": bson.M{"$lte": now},
		"attempts":      bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().SetSort(bson.D{{Key: "nextAttemptAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("find due cleanup intents", err)
	}
	defer cursor.Close(ctx)

	var docs []*cleanupIntentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storeErr("decode cleanup intents", err)
	}
	out := make([]*domain.CleanupIntent, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainCleanupIntent(d))
	}
	return out, nil
}

func (r *CleanupIntentRepository) Resolve(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed cleanup intent id %q", domain.ErrInternal, id)
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID}); err != nil {
		return storeErr("resolve cleanup intent", err)
	}
	return nil
}

func (r *CleanupIntentRepository) MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: malformed cleanup intent id %q", domain.ErrInternal, id)
	}
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"lastError": lastError, "nextAttemptAt": nextAttemptAt},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		return storeErr("mark cleanup intent failed", err)
	}
	return nil
}
