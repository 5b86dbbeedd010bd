package domain

// WorkoutType classifies a running session by its training purpose.
type WorkoutType string

const (
	WorkoutEasy     WorkoutType = "easy"
	WorkoutSpeed    WorkoutType = "speed"
	WorkoutLong     WorkoutType = "long"
	WorkoutRecovery WorkoutType = "recovery"
)

// IsValid reports whether t is a known workout type.
func (t WorkoutType) IsValid() bool {
	switch t {
	case WorkoutEasy, WorkoutSpeed, WorkoutLong, WorkoutRecovery:
		return true
	}
	return false
}

// WorkoutBlock is one step of a session (warm-up, interval set, cool-down...).
// The reconciliation core never looks inside blocks; they travel through
// storage and the proposer untouched.
type WorkoutBlock struct {
	Label       string  `bson:"label" json:"label"`
	DistanceKm  float64 `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
	DurationMin float64 `bson:"durationMin,omitempty" json:"durationMin,omitempty"`
	Pace        string  `bson:"pace,omitempty" json:"pace,omitempty"`
	Repeats     int     `bson:"repeats,omitempty" json:"repeats,omitempty"`
}

// Workout is one planned running session. A nil *Workout in a plan slot
// means a rest day.
type Workout struct {
	Title  string         `bson:"title" json:"title"`
	Type   WorkoutType    `bson:"type" json:"type"`
	Blocks []WorkoutBlock `bson:"blocks,omitempty" json:"blocks,omitempty"`
}

// AdjustmentKind describes how a postponed workout's load should be
// redistributed over the rest of the week.
type AdjustmentKind string

const (
	AdjustSame     AdjustmentKind = "same"     // move the workout as-is
	AdjustEasier   AdjustmentKind = "easier"   // move it but tone it down
	AdjustReduce   AdjustmentKind = "reduce"   // shrink it into an existing day
	AdjustRecovery AdjustmentKind = "recovery" // swap in a recovery session
	AdjustCustom   AdjustmentKind = "custom"   // free-form instruction in reason
)

// IsValid reports whether k is a known adjustment kind.
func (k AdjustmentKind) IsValid() bool {
	switch k {
	case AdjustSame, AdjustEasier, AdjustReduce, AdjustRecovery, AdjustCustom:
		return true
	}
	return false
}
