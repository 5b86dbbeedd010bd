package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"time"
)

// BuildDayInfos renders the seven-day read-only view the schedule grid
// consumes. A nil plan yields an all-rest grid rather than an error.
func BuildDayInfos(plan *domain.WeeklyPlan) []DayInfo {
	infos := make([]DayInfo, 0, len(domain.WeekDays))
	for _, day := range domain.WeekDays {
		info := DayInfo{Day: day}
		if plan != nil {
			info.IsPostponed = plan.IsPostponed(day)
			info.PlannedWorkout = plan.Day(day)
			if match, ok := plan.ActivityMatches[day]; ok && match != nil && len(match.MatchedActivityIDs) > 0 {
				info.HasMatchedWorkout = true
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// TodayWorkout derives "today's workout" for the header card. Always
// recomputed from the reconciled plan; a postponed today shows as rest.
func TodayWorkout(plan *domain.WeeklyPlan, now time.Time) *domain.Workout {
	if plan == nil {
		return nil
	}
	return plan.CurrentWorkout(now)
}
