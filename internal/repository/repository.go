package repository

import (
	"alcyxob/runcoach-app/internal/domain" // Import our defined domain models
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUnavailable  = RepositoryError("storage unavailable")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanStore is one storage tier for weekly-plan blobs. Two instances are
// composed above this layer: a durable tier (authoritative, shared across
// devices, may time out) and a cache tier (fast, local, may be evicted or
// empty on a fresh device). Values are opaque JSON strings; nothing above
// this interface may assume either tier is populated.
type PlanStore interface {
	Get(ctx context.Context, key string) (string, error) // ErrNotFound when absent
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// PlanKeyLister enumerates stored week keys. Only the durable tier
// implements it; the archiver uses it to find weeks that have passed.
type PlanKeyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// LegacySlotStore reads the pre-ledger single-slot postponement record.
// Only the cache tier carries one; it exists solely for migration.
type LegacySlotStore interface {
	GetLegacyPostponement(ctx context.Context) (*domain.LegacyPostponement, error) // ErrNotFound when absent
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// RatingRepository defines the interface for interacting with activity ratings.
type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) (primitive.ObjectID, error)
	GetByActivityID(ctx context.Context, activityID string) (*domain.Rating, error)
	GetRecent(ctx context.Context, limit int) ([]domain.Rating, error)
}
