package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"sort"
	"time"
)

// clusterGap is the maximum start-time gap between two consecutive
// activities for them to count as one session. GPS-watch users often record
// a warm-up and the main run as separate activities a few minutes apart.
const clusterGap = 10 * time.Minute

// MatchActivities maps synced activities onto the planned days of one week.
//
// Pure function: given the same (activities, plan, weekStart) it always
// returns the same mapping regardless of input ordering, and its output
// fully replaces any previous _activityMatches on the plan. Days with no
// planned workout never get an entry. When several activities share a
// planned day's date they are clustered by start time and the largest
// cluster wins (ties go to the chronologically first).
func MatchActivities(activities []domain.Activity, plan *domain.WeeklyPlan, weekStart time.Time) map[domain.Weekday]*domain.MatchRecord {
	matches := make(map[domain.Weekday]*domain.MatchRecord)
	if plan == nil {
		return matches
	}

	// Sort a copy so the result is independent of caller ordering. Activity
	// ID breaks start-time ties deterministically.
	sorted := make([]domain.Activity, len(activities))
	copy(sorted, activities)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].StartTime.Equal(sorted[j].StartTime) {
			return sorted[i].StartTime.Before(sorted[j].StartTime)
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, day := range domain.WeekDays {
		workout := plan.Day(day)
		if workout == nil {
			continue
		}
		date := domain.DateOn(weekStart, day)

		var onDate []domain.Activity
		for _, a := range sorted {
			if domain.SameDate(date, a.StartTime) {
				onDate = append(onDate, a)
			}
		}
		if len(onDate) == 0 {
			continue
		}

		session := onDate
		if len(onDate) > 1 {
			session = largestCluster(onDate)
		}

		ids := make([]string, len(session))
		for i, a := range session {
			ids[i] = a.ID
		}
		matches[day] = &domain.MatchRecord{
			Workout:            workout,
			Activities:         session,
			MatchedActivityIDs: ids,
		}
	}
	return matches
}

// largestCluster greedily groups consecutive activities whose start times
// are within clusterGap of each other and returns the biggest group. On a
// size tie the earliest cluster wins, which the chronological scan gives us
// for free.
func largestCluster(activities []domain.Activity) []domain.Activity {
	bestStart, bestLen := 0, 1
	start := 0
	for i := 1; i < len(activities); i++ {
		if activities[i].StartTime.Sub(activities[i-1].StartTime) > clusterGap {
			start = i
		}
		if length := i - start + 1; length > bestLen {
			bestStart, bestLen = start, length
		}
	}
	return activities[bestStart : bestStart+bestLen]
}
