package mongo

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ratingCollectionName = "activity_ratings"

// mongoRatingRepository implements repository.RatingRepository.
type mongoRatingRepository struct {
	collection *mongo.Collection
}

// NewMongoRatingRepository creates a new activity rating repository.
func NewMongoRatingRepository(db *mongo.Database) repository.RatingRepository {
	return &mongoRatingRepository{
		collection: db.Collection(ratingCollectionName),
	}
}

// Upsert stores the rating for an activity, replacing any earlier rating of
// the same activity (re-rating a run is allowed, only the latest counts).
func (r *mongoRatingRepository) Upsert(ctx context.Context, rating *domain.Rating) (primitive.ObjectID, error) {
	if rating.ActivityID == "" {
		return primitive.NilObjectID, errors.New("rating requires an activity ID")
	}
	now := time.Now().UTC()
	rating.CreatedAt = now

	filter := bson.M{"activityId": rating.ActivityID}
	update := bson.M{
		"$set": bson.M{
			"effort":    rating.Effort,
			"feel":      rating.Feel,
			"notes":     rating.Notes,
			"createdAt": now,
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return primitive.NilObjectID, err
	}
	if upserted, ok := result.UpsertedID.(primitive.ObjectID); ok {
		rating.ID = upserted
		return upserted, nil
	}
	// Updated an existing rating; fetch its ID.
	existing, err := r.GetByActivityID(ctx, rating.ActivityID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	rating.ID = existing.ID
	return existing.ID, nil
}

// GetByActivityID retrieves the rating for a single activity.
func (r *mongoRatingRepository) GetByActivityID(ctx context.Context, activityID string) (*domain.Rating, error) {
	var rating domain.Rating
	err := r.collection.FindOne(ctx, bson.M{"activityId": activityID}).Decode(&rating)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// GetRecent retrieves the newest ratings, newest first.
func (r *mongoRatingRepository) GetRecent(ctx context.Context, limit int) ([]domain.Rating, error) {
	if limit <= 0 {
		limit = 20
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ratings []domain.Rating
	if err = cursor.All(ctx, &ratings); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Return empty slice if nothing rated yet (not an error)
	return ratings, nil
}

// EnsureRatingIndexes creates necessary indexes. Call during startup.
func EnsureRatingIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "activityId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
