package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is the athlete's post-run feedback on one activity. Ratings feed
// the advisory RatingAnalysis annotation only; reconciliation ignores them.
type Rating struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActivityID string             `bson:"activityId" json:"activityId"`
	Effort     int                `bson:"effort" json:"effort"` // 1 (trivial) - 5 (all out)
	Feel       int                `bson:"feel" json:"feel"`     // 1 (awful) - 5 (great)
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
