package domain

import "time"

// Activity is one synced recording from the athlete's fitness service
// (a Strava-style activity). IDs are the provider's IDs rendered as strings.
type Activity struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	SportType    string    `bson:"sportType" json:"sportType"`
	StartTime    time.Time `bson:"startTime" json:"startTime"`
	DistanceM    float64   `bson:"distanceM" json:"distanceM"`
	MovingTimeS  int       `bson:"movingTimeS" json:"movingTimeS"`
	AvgHeartRate float64   `bson:"avgHeartRate,omitempty" json:"avgHeartRate,omitempty"`
}
