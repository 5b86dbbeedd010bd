package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activityAt(id string, start time.Time) domain.Activity {
	return domain.Activity{
		ID:          id,
		Name:        "Run " + id,
		SportType:   "Run",
		StartTime:   start,
		DistanceM:   8000,
		MovingTimeS: 2700,
	}
}

func TestMatchActivitiesByDate(t *testing.T) {
	plan := testPlan()
	tuesday := testWeekStart.AddDate(0, 0, 1)
	sunday := testWeekStart.AddDate(0, 0, 6)

	activities := []domain.Activity{
		activityAt("tue-run", tuesday.Add(18*time.Hour)),
		activityAt("sun-run", sunday.Add(8*time.Hour)),
		activityAt("off-week", testWeekStart.AddDate(0, 0, -2)),
	}

	matches := MatchActivities(activities, plan, testWeekStart)

	require.Len(t, matches, 2)
	assert.Equal(t, []string{"tue-run"}, matches[domain.Tuesday].MatchedActivityIDs)
	assert.Equal(t, []string{"sun-run"}, matches[domain.Sunday].MatchedActivityIDs)
	assert.Equal(t, "Long Run", matches[domain.Sunday].Workout.Title)
}

func TestMatchActivitiesSkipsRestDays(t *testing.T) {
	plan := testPlan()
	// Monday is a rest day; an activity there must not produce a match.
	monday := testWeekStart.Add(7 * time.Hour)

	matches := MatchActivities([]domain.Activity{activityAt("mon-run", monday)}, plan, testWeekStart)

	assert.Empty(t, matches)
}

// A warm-up recorded a few minutes before the main run counts as the same
// session.
func TestMatchActivitiesClustersSplitRecordings(t *testing.T) {
	plan := testPlan()
	sunday := testWeekStart.AddDate(0, 0, 6)

	warmup := activityAt("warmup", sunday.Add(9*time.Hour))
	main := activityAt("main", sunday.Add(9*time.Hour+4*time.Minute))

	matches := MatchActivities([]domain.Activity{warmup, main}, plan, testWeekStart)

	match := matches[domain.Sunday]
	require.NotNil(t, match)
	assert.Equal(t, []string{"warmup", "main"}, match.MatchedActivityIDs)
	require.Len(t, match.Activities, 2)
}

func TestMatchActivitiesLargestClusterWins(t *testing.T) {
	plan := testPlan()
	sunday := testWeekStart.AddDate(0, 0, 6)

	// A lone morning shakeout vs. an afternoon warm-up + main run.
	shakeout := activityAt("shakeout", sunday.Add(7*time.Hour))
	warmup := activityAt("warmup", sunday.Add(15*time.Hour))
	main := activityAt("main", sunday.Add(15*time.Hour+5*time.Minute))

	matches := MatchActivities([]domain.Activity{shakeout, warmup, main}, plan, testWeekStart)

	match := matches[domain.Sunday]
	require.NotNil(t, match)
	assert.Equal(t, []string{"warmup", "main"}, match.MatchedActivityIDs)
}

func TestMatchActivitiesTieGoesToEarliestCluster(t *testing.T) {
	plan := testPlan()
	sunday := testWeekStart.AddDate(0, 0, 6)

	morning := activityAt("morning", sunday.Add(8*time.Hour))
	evening := activityAt("evening", sunday.Add(18*time.Hour))

	matches := MatchActivities([]domain.Activity{evening, morning}, plan, testWeekStart)

	match := matches[domain.Sunday]
	require.NotNil(t, match)
	assert.Equal(t, []string{"morning"}, match.MatchedActivityIDs)
}

// Matching is a pure function of its inputs: feeding the activities in any
// order yields the identical result.
func TestMatchActivitiesOrderIndependent(t *testing.T) {
	plan := testPlan()
	tuesday := testWeekStart.AddDate(0, 0, 1)
	sunday := testWeekStart.AddDate(0, 0, 6)

	activities := []domain.Activity{
		activityAt("a", tuesday.Add(6*time.Hour)),
		activityAt("b", sunday.Add(9*time.Hour)),
		activityAt("c", sunday.Add(9*time.Hour+3*time.Minute)),
		activityAt("d", sunday.Add(17*time.Hour)),
	}
	reversed := []domain.Activity{activities[3], activities[2], activities[1], activities[0]}

	forward := MatchActivities(activities, plan, testWeekStart)
	backward := MatchActivities(reversed, plan, testWeekStart)

	assert.Equal(t, forward, backward)
}

func TestMatchActivitiesBreaksStartTimeTiesByID(t *testing.T) {
	plan := testPlan()
	sunday := testWeekStart.AddDate(0, 0, 6)
	start := sunday.Add(9 * time.Hour)

	first := MatchActivities([]domain.Activity{activityAt("b", start), activityAt("a", start)}, plan, testWeekStart)
	second := MatchActivities([]domain.Activity{activityAt("a", start), activityAt("b", start)}, plan, testWeekStart)

	require.NotNil(t, first[domain.Sunday])
	assert.Equal(t, []string{"a", "b"}, first[domain.Sunday].MatchedActivityIDs)
	assert.Equal(t, first, second)
}

func TestMatchActivitiesNilPlan(t *testing.T) {
	matches := MatchActivities([]domain.Activity{activityAt("a", testWeekStart)}, nil, testWeekStart)
	assert.Empty(t, matches)
}
