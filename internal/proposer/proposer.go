package proposer

import (
	"alcyxob/runcoach-app/internal/domain"
	"context"
	"errors"
)

// ErrProposalFailed covers every way the external proposer can let us down:
// network failure, an unparsable completion, or a returned plan that is a
// no-op. Callers must treat it as a degraded-but-safe outcome, never fatal.
var ErrProposalFailed = errors.New("plan proposal failed")

// AdjustmentRequest carries everything the proposer needs to redistribute a
// postponed day's load across the rest of the week.
type AdjustmentRequest struct {
	CurrentPlan      *domain.WeeklyPlan
	PostponedDay     domain.Weekday
	Reason           string
	Adjustment       domain.AdjustmentKind
	RecentActivities []domain.Activity
}

// GenerationRequest carries the inputs for drafting a brand-new week.
type GenerationRequest struct {
	WeekTitle        string
	WeeklyGoalKm     float64
	RecentActivities []domain.Activity
}

// Proposer is the external LLM-backed service that drafts and redistributes
// weekly plans. Consumed as an opaque collaborator: whatever it returns is
// re-validated against the plan invariants before being trusted.
type Proposer interface {
	// ProposeAdjustedPlan asks for a full week plan that moves or merges the
	// postponed workout's load into other days.
	ProposeAdjustedPlan(ctx context.Context, req AdjustmentRequest) (*domain.WeeklyPlan, error)

	// GenerateWeek drafts a plan for a week that has none yet.
	GenerateWeek(ctx context.Context, req GenerationRequest) (*domain.WeeklyPlan, error)
}
