package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *WeeklyPlan {
	return &WeeklyPlan{
		WeekTitle: "Week of Aug 25, 2025",
		Tuesday:   &Workout{Title: "Easy Run", Type: WorkoutEasy},
		Thursday:  &Workout{Title: "Intervals", Type: WorkoutSpeed},
		Sunday:    &Workout{Title: "Long Run", Type: WorkoutLong},
	}
}

func sampleRecord(day Weekday) *PostponementRecord {
	return &PostponementRecord{
		Postponed:   true,
		Reason:      "felt sick",
		Date:        time.Date(2025, time.August, 26, 8, 0, 0, 0, time.UTC),
		OriginalDay: day,
		Adjustment:  AdjustSame,
	}
}

func TestDayAndSetDay(t *testing.T) {
	plan := samplePlan()

	require.NotNil(t, plan.Day(Tuesday))
	assert.Nil(t, plan.Day(Monday))
	assert.Nil(t, plan.Day(Weekday("funday")))

	plan.SetDay(Monday, &Workout{Title: "Shakeout", Type: WorkoutRecovery})
	require.NotNil(t, plan.Monday)
	plan.SetDay(Tuesday, nil)
	assert.Nil(t, plan.Tuesday)
}

func TestScheduledDayCount(t *testing.T) {
	plan := samplePlan()
	assert.Equal(t, 3, plan.ScheduledDayCount())

	plan.SetDay(Tuesday, nil)
	assert.Equal(t, 2, plan.ScheduledDayCount())

	assert.Equal(t, 0, NewRestWeek("empty").ScheduledDayCount())
}

func TestIsPostponed(t *testing.T) {
	plan := samplePlan()
	assert.False(t, plan.IsPostponed(Tuesday))

	plan.SetPostponement(Tuesday, sampleRecord(Tuesday))
	assert.True(t, plan.IsPostponed(Tuesday))
	assert.False(t, plan.IsPostponed(Wednesday))

	// A record with Postponed=false does not flag the day.
	plan.SetPostponement(Friday, &PostponementRecord{Postponed: false})
	assert.False(t, plan.IsPostponed(Friday))
}

func TestMergePostponementsExistingWins(t *testing.T) {
	plan := samplePlan()
	mine := sampleRecord(Tuesday)
	plan.SetPostponement(Tuesday, mine)

	theirs := map[Weekday]*PostponementRecord{
		Tuesday: {Postponed: true, Reason: "different story"},
		Friday:  sampleRecord(Friday),
		Monday:  nil, // nil entries never merge in
	}
	added := plan.MergePostponements(theirs)

	assert.Equal(t, 1, added)
	assert.Same(t, mine, plan.Postponements[Tuesday], "existing entry must win")
	assert.Contains(t, plan.Postponements, Friday)
	assert.NotContains(t, plan.Postponements, Monday)
}

func TestMergePostponementsIsSupersetOfBoth(t *testing.T) {
	plan := samplePlan()
	plan.SetPostponement(Tuesday, sampleRecord(Tuesday))

	theirs := map[Weekday]*PostponementRecord{
		Thursday: sampleRecord(Thursday),
		Sunday:   sampleRecord(Sunday),
	}
	plan.MergePostponements(theirs)

	assert.True(t, plan.PostponementKeysSuperset(theirs))
	assert.Len(t, plan.Postponements, 3)
}

func TestMergePostponementsIntoEmptyPlan(t *testing.T) {
	plan := samplePlan()
	added := plan.MergePostponements(map[Weekday]*PostponementRecord{Tuesday: sampleRecord(Tuesday)})

	assert.Equal(t, 1, added)
	assert.True(t, plan.IsPostponed(Tuesday))
}

func TestRepairPostponedSlots(t *testing.T) {
	plan := samplePlan()
	plan.SetPostponement(Tuesday, sampleRecord(Tuesday))
	plan.SetPostponement(Sunday, sampleRecord(Sunday))
	plan.SetDay(Sunday, nil) // already clear, must not be reported

	repaired := plan.RepairPostponedSlots()

	assert.Equal(t, []Weekday{Tuesday}, repaired)
	assert.Nil(t, plan.Tuesday)
	assert.Nil(t, plan.Sunday)
	// Non-postponed days keep their workouts.
	assert.NotNil(t, plan.Thursday)

	// Second pass finds nothing to do.
	assert.Empty(t, plan.RepairPostponedSlots())
}

func TestPostponementKeysSuperset(t *testing.T) {
	plan := samplePlan()
	plan.SetPostponement(Tuesday, sampleRecord(Tuesday))

	assert.True(t, plan.PostponementKeysSuperset(nil))
	assert.True(t, plan.PostponementKeysSuperset(map[Weekday]*PostponementRecord{Tuesday: sampleRecord(Tuesday)}))
	assert.False(t, plan.PostponementKeysSuperset(map[Weekday]*PostponementRecord{Friday: sampleRecord(Friday)}))

	empty := samplePlan()
	assert.True(t, empty.PostponementKeysSuperset(nil))
	assert.False(t, empty.PostponementKeysSuperset(map[Weekday]*PostponementRecord{Tuesday: sampleRecord(Tuesday)}))
}

func TestCurrentWorkout(t *testing.T) {
	plan := samplePlan()
	tuesday := time.Date(2025, time.August, 26, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2025, time.August, 25, 10, 0, 0, 0, time.UTC)

	workout := plan.CurrentWorkout(tuesday)
	require.NotNil(t, workout)
	assert.Equal(t, "Easy Run", workout.Title)

	assert.Nil(t, plan.CurrentWorkout(monday), "rest day has no workout")

	// Postponing today hides the workout even while the slot is still set.
	plan.SetPostponement(Tuesday, sampleRecord(Tuesday))
	assert.Nil(t, plan.CurrentWorkout(tuesday))
}
