package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/proposer"
	"alcyxob/runcoach-app/internal/repository"
	"alcyxob/runcoach-app/internal/strava"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound      = errors.New("no plan stored for this week")
	ErrPostponeInFlight  = errors.New("a postponement is already in progress for this week")
	ErrInvalidWeekKey    = errors.New("invalid week key")
	ErrInvalidDay        = errors.New("invalid weekday")
	ErrInvalidAdjustment = errors.New("invalid adjustment kind")
)

// DayInfo is the read-only per-day view the schedule grid consumes.
type DayInfo struct {
	Day               domain.Weekday  `json:"day"`
	IsPostponed       bool            `json:"isPostponed"`
	HasMatchedWorkout bool            `json:"hasMatchedWorkout"`
	PlannedWorkout    *domain.Workout `json:"plannedWorkout"`
}

// PostponeResult reports the outcome of a postponement. Redistributed=false
// with a Warning is the degraded-but-safe outcome: the day is postponed and
// durable, but no redistribution happened.
type PostponeResult struct {
	Plan          *domain.WeeklyPlan `json:"plan"`
	Redistributed bool               `json:"redistributed"`
	Warning       string             `json:"warning,omitempty"`
}

// PlanService owns the weekly-plan lifecycle: loading/reconciling a week,
// postponing a day, syncing activities and attaching ratings.
type PlanService interface {
	// GetWeek returns the reconciled plan for a week, generating one via the
	// proposer when no tier has a plan yet. Never fails hard: worst case is
	// an all-rest fallback plan.
	GetWeek(ctx context.Context, weekKey string) (*domain.WeeklyPlan, []DayInfo, error)

	// Postpone runs the postponement workflow for one day of one week.
	Postpone(ctx context.Context, weekKey string, day domain.Weekday, reason string, adjustment domain.AdjustmentKind) (*PostponeResult, error)

	// SyncActivities fetches recent activities and rebuilds the week's
	// activity matches from scratch.
	SyncActivities(ctx context.Context, weekKey string) (*domain.WeeklyPlan, error)

	// RateActivity stores the athlete's rating for an activity and refreshes
	// the advisory rating analysis on the current week's plan.
	RateActivity(ctx context.Context, activityID string, effort, feel int, notes string) (*domain.Rating, error)
}

// planService implements PlanService.
type planService struct {
	reconciler *Reconciler
	proposer   proposer.Proposer
	activities strava.ActivitySource
	ratingRepo repository.RatingRepository
	now        func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool // week keys with a postponement running
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	reconciler *Reconciler,
	prop proposer.Proposer,
	activities strava.ActivitySource,
	ratingRepo repository.RatingRepository,
) PlanService {
	return &planService{
		reconciler: reconciler,
		proposer:   prop,
		activities: activities,
		ratingRepo: ratingRepo,
		now:        time.Now,
		inFlight:   make(map[string]bool),
	}
}

// === Week loading ===

func (s *planService) GetWeek(ctx context.Context, weekKey string) (*domain.WeeklyPlan, []DayInfo, error) {
	weekStart, err := domain.ParseWeekKey(weekKey)
	if err != nil {
		return nil, nil, ErrInvalidWeekKey
	}

	plan, changed, err := s.reconciler.Load(ctx, weekKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
		plan = s.generateWeek(ctx, weekKey, weekStart)
	} else if changed {
		// The repair pass altered the plan; make the healed copy durable.
		s.reconciler.PersistBoth(ctx, weekKey, plan)
	}

	return plan, BuildDayInfos(plan), nil
}

// generateWeek asks the proposer to draft a plan for an empty week. On any
// failure the all-rest fallback is returned (and deliberately not
// persisted, so the next view retries generation).
func (s *planService) generateWeek(ctx context.Context, weekKey string, weekStart time.Time) *domain.WeeklyPlan {
	title := WeekTitle(weekStart)

	recent := s.fetchActivities(ctx)
	plan, err := s.proposer.GenerateWeek(ctx, proposer.GenerationRequest{
		WeekTitle:        title,
		RecentActivities: recent,
	})
	if err != nil {
		log.Printf("WARN: Week generation failed for %s, serving rest week: %v", weekKey, err)
		return domain.NewRestWeek(title)
	}
	if plan.WeekTitle == "" {
		plan.WeekTitle = title
	}
	plan.ActivityMatches = MatchActivities(recent, plan, weekStart)
	s.reconciler.PersistBoth(ctx, weekKey, plan)
	log.Printf("INFO: Generated new plan for week %s (%d scheduled days)", weekKey, plan.ScheduledDayCount())
	return plan
}

// === Postponement workflow ===

func (s *planService) Postpone(ctx context.Context, weekKey string, day domain.Weekday, reason string, adjustment domain.AdjustmentKind) (*PostponeResult, error) {
	weekStart, err := domain.ParseWeekKey(weekKey)
	if err != nil {
		return nil, ErrInvalidWeekKey
	}
	if !day.IsValid() {
		return nil, ErrInvalidDay
	}
	if !adjustment.IsValid() {
		return nil, ErrInvalidAdjustment
	}

	// One postponement per week at a time on this device. Cross-device races
	// are resolved by the merge rules, not by locking.
	if !s.acquire(weekKey) {
		return nil, ErrPostponeInFlight
	}
	defer s.release(weekKey)

	plan, _, err := s.reconciler.Load(ctx, weekKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// Keep the pre-postponement plan for the proposer and for validation.
	contextPlan := clonePlan(plan)

	// Step 1: capture the displaced workout. If the slot is already empty a
	// previous postponement owns the original; re-entrant calls must not
	// overwrite it (that would double-count the removed load).
	originalWorkout := plan.Day(day)
	if originalWorkout == nil {
		if existing, ok := plan.Postponements[day]; ok && existing != nil {
			originalWorkout = existing.OriginalWorkout
		}
	}

	// preCount is the weekly load baseline the proposer must conserve: the
	// scheduled days right now, plus the displaced workout if its slot is
	// already empty.
	preCount := plan.ScheduledDayCount()
	if plan.Day(day) == nil && originalWorkout != nil {
		preCount++
	}

	// Steps 2+3: ledger entry and slot clear. Entries for other days are
	// never touched.
	plan.SetPostponement(day, &domain.PostponementRecord{
		Postponed:       true,
		Reason:          reason,
		Date:            s.now().UTC(),
		OriginalDay:     day,
		OriginalWorkout: originalWorkout,
		Adjustment:      adjustment,
	})
	plan.SetDay(day, nil)

	// Step 4: make the postponement durable before attempting
	// redistribution. A crash past this point leaves a valid state.
	s.reconciler.PersistBoth(ctx, weekKey, plan)

	// Step 5: ask the proposer to redistribute.
	recent := s.fetchActivities(ctx)
	candidate, err := s.proposer.ProposeAdjustedPlan(ctx, proposer.AdjustmentRequest{
		CurrentPlan:      contextPlan,
		PostponedDay:     day,
		Reason:           reason,
		Adjustment:       adjustment,
		RecentActivities: recent,
	})
	if err == nil {
		err = s.acceptCandidate(candidate, plan, contextPlan, preCount)
	}

	// Step 7: any proposer failure keeps the safe intermediate state.
	if err != nil {
		log.Printf("WARN: Redistribution for week %s day %s did not complete: %v", weekKey, day, err)
		plan.ActivityMatches = MatchActivities(recent, plan, weekStart)
		s.reconciler.PersistBoth(ctx, weekKey, plan)
		return &PostponeResult{
			Plan:          plan,
			Redistributed: false,
			Warning:       "workout postponed, but automatic rescheduling did not complete",
		}, nil
	}

	// Step 6: candidate accepted — rebuild matches and persist everywhere.
	candidate.ActivityMatches = MatchActivities(recent, candidate, weekStart)
	s.reconciler.PersistBoth(ctx, weekKey, candidate)
	return &PostponeResult{Plan: candidate, Redistributed: true}, nil
}

// acceptCandidate re-validates a proposed plan and folds our ledger into it.
// A candidate that breaks the invariants is rejected the same way a network
// failure would be.
func (s *planService) acceptCandidate(candidate, plan, contextPlan *domain.WeeklyPlan, preCount int) error {
	if candidate == nil {
		return proposer.ErrProposalFailed
	}

	// A proposal identical to its input is a no-op, not a redistribution.
	if plansEqual(candidate, contextPlan) {
		return fmt.Errorf("%w: proposer returned the input plan unchanged", proposer.ErrProposalFailed)
	}

	// The proposer must never erase a postponement it wasn't told about:
	// our own ledger wins on every conflict.
	for d, rec := range plan.Postponements {
		candidate.SetPostponement(d, rec)
	}

	// Repair pass: every flagged day is a rest day even if the proposer put
	// a workout back.
	if repaired := candidate.RepairPostponedSlots(); len(repaired) > 0 {
		log.Printf("WARN: Proposer re-filled postponed day(s) %v; cleared", repaired)
	}

	// Load conservation: moving keeps the scheduled-day count, combining
	// two workouts drops it by exactly one. Anything else loses or invents
	// training load.
	count := candidate.ScheduledDayCount()
	if count > preCount || count < preCount-1 {
		return fmt.Errorf("%w: proposal has %d scheduled days, expected %d or %d", proposer.ErrProposalFailed, count, preCount, preCount-1)
	}

	// Advisory annotation carries over; the proposer does not know about it.
	if candidate.RatingAnalysis == nil {
		candidate.RatingAnalysis = plan.RatingAnalysis
	}
	if candidate.WeekTitle == "" {
		candidate.WeekTitle = plan.WeekTitle
	}
	return nil
}

// === Activity sync ===

func (s *planService) SyncActivities(ctx context.Context, weekKey string) (*domain.WeeklyPlan, error) {
	weekStart, err := domain.ParseWeekKey(weekKey)
	if err != nil {
		return nil, ErrInvalidWeekKey
	}
	plan, _, err := s.reconciler.Load(ctx, weekKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	activities, err := s.activities.FetchRecentActivities(ctx)
	if err != nil {
		return nil, err
	}

	// Matches are derived data: the new result replaces the old wholesale.
	plan.ActivityMatches = MatchActivities(activities, plan, weekStart)
	s.reconciler.PersistBoth(ctx, weekKey, plan)
	return plan, nil
}

// === Ratings ===

func (s *planService) RateActivity(ctx context.Context, activityID string, effort, feel int, notes string) (*domain.Rating, error) {
	if activityID == "" {
		return nil, errors.New("activity ID is required")
	}
	if effort < 1 || effort > 5 || feel < 1 || feel > 5 {
		return nil, errors.New("effort and feel must be between 1 and 5")
	}

	rating := &domain.Rating{
		ActivityID: activityID,
		Effort:     effort,
		Feel:       feel,
		Notes:      notes,
	}
	if _, err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	// Refresh the advisory analysis on the current week's plan. Best-effort:
	// a failure here never fails the rating itself.
	recent, err := s.ratingRepo.GetRecent(ctx, 20)
	if err != nil {
		log.Printf("WARN: Could not load recent ratings for analysis: %v", err)
		return rating, nil
	}
	analysis := AnalyzeRatings(recent, s.now())

	weekKey := domain.WeekKey(s.now())
	plan, _, err := s.reconciler.Load(ctx, weekKey)
	if err != nil || plan == nil {
		return rating, nil // no current plan to annotate
	}
	plan.RatingAnalysis = analysis
	s.reconciler.PersistBoth(ctx, weekKey, plan)
	return rating, nil
}

// === Helpers ===

func (s *planService) fetchActivities(ctx context.Context) []domain.Activity {
	if s.activities == nil {
		return nil
	}
	activities, err := s.activities.FetchRecentActivities(ctx)
	if err != nil {
		log.Printf("WARN: Activity sync failed, continuing without matches: %v", err)
		return nil
	}
	return activities
}

func (s *planService) acquire(weekKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[weekKey] {
		return false
	}
	s.inFlight[weekKey] = true
	return true
}

func (s *planService) release(weekKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, weekKey)
}

// clonePlan deep-copies a plan through its canonical encoding.
func clonePlan(plan *domain.WeeklyPlan) *domain.WeeklyPlan {
	encoded, err := domain.EncodePlan(plan)
	if err != nil {
		return plan
	}
	clone, err := domain.DecodePlan(encoded)
	if err != nil {
		return plan
	}
	return clone
}

// WeekTitle renders the display title for a week.
func WeekTitle(weekStart time.Time) string {
	return "Week of " + weekStart.Format("Jan 2, 2006")
}
