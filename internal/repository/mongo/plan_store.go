package mongo

import (
	"alcyxob/runcoach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weeklyPlanCollectionName = "weekly_plans"

// planDocument is the stored shape: one document per week key, the plan
// itself kept as an opaque JSON string. Keeping the blob opaque means the
// durable tier and the cache tier store byte-identical values, and schema
// evolution stays in the domain codec instead of in mongo migrations.
type planDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoPlanStore implements repository.PlanStore as the durable tier.
type mongoPlanStore struct {
	collection *mongo.Collection
}

// NewMongoPlanStore creates the durable weekly-plan store.
func NewMongoPlanStore(db *mongo.Database) *mongoPlanStore {
	return &mongoPlanStore{
		collection: db.Collection(weeklyPlanCollectionName),
	}
}

// Get retrieves the stored blob for a week key.
func (s *mongoPlanStore) Get(ctx context.Context, key string) (string, error) {
	var doc planDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", repository.ErrUnavailable
		}
		return "", err
	}
	return doc.Value, nil
}

// Set upserts the blob for a week key. One atomic write per tier; callers
// treat failures as best-effort and keep going on the other tier.
func (s *mongoPlanStore) Set(ctx context.Context, key string, value string) error {
	filter := bson.M{"_id": key}
	update := bson.M{
		"$set": bson.M{
			"value":     value,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return repository.ErrUnavailable
	}
	return err
}

// Remove deletes the blob for a week key. Absence is not an error.
func (s *mongoPlanStore) Remove(ctx context.Context, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Keys lists every stored week key. Used by the archiver to find weeks
// that have already passed.
func (s *mongoPlanStore) Keys(ctx context.Context) ([]string, error) {
	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
