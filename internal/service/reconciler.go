package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/repository"
	"context"
	"errors"
	"log"
	"time"
)

// Reconciler produces a single authoritative in-memory WeeklyPlan for a
// week key, healing the known corruption modes on the way: a durable tier
// that lost its postponement ledger, a legacy single-slot record that never
// made it into the per-day ledger, and postponed days that an external
// proposer (or a racing device) re-filled with a workout.
type Reconciler struct {
	durable        repository.PlanStore
	cache          repository.PlanStore
	legacy         repository.LegacySlotStore
	durableTimeout time.Duration
	now            func() time.Time
}

// NewReconciler creates a reconciler over the two storage tiers. legacy may
// be nil when the cache tier carries no pre-ledger slot (tests, fresh
// installs).
func NewReconciler(durable, cache repository.PlanStore, legacy repository.LegacySlotStore, durableTimeout time.Duration) *Reconciler {
	if durableTimeout <= 0 {
		durableTimeout = 3 * time.Second
	}
	return &Reconciler{
		durable:        durable,
		cache:          cache,
		legacy:         legacy,
		durableTimeout: durableTimeout,
		now:            time.Now,
	}
}

// PlanKey renders the full storage key for a week key.
func PlanKey(weekKey string) string {
	return "weekly_plan_" + weekKey
}

// Load reads, merges and repairs the stored plan for one week.
//
// The returned changed flag tells the caller the repair pass altered the
// plan, so it should be persisted back. A (nil, false, repository.ErrNotFound)
// result means neither tier has a usable plan and the caller may generate
// one. Load itself never fails hard: every storage error degrades to the
// other tier.
func (r *Reconciler) Load(ctx context.Context, weekKey string) (*domain.WeeklyPlan, bool, error) {
	key := PlanKey(weekKey)

	// Step 1: durable is the preferred candidate; fall back to cache on
	// failure or timeout.
	candidate, durableState := r.readDurable(ctx, key)
	fromCache := false
	if candidate == nil {
		candidate = r.readCache(ctx, key)
		fromCache = candidate != nil
	}
	if candidate == nil {
		return nil, false, repository.ErrNotFound
	}

	// Step 2: the candidate came from cache while durable was reachable but
	// simply empty — opportunistically repair the diverged durable tier.
	if fromCache && durableState == durableEmpty {
		r.writeDurable(ctx, key, candidate)
	}

	// Step 3: recovery pass 1. A candidate with no ledger but a cached copy
	// that has one means postponements were lost upstream; take the union
	// (cache wins on conflict) and persist the merge.
	if len(candidate.Postponements) == 0 && !fromCache {
		if cached := r.readCache(ctx, key); cached != nil && len(cached.Postponements) > 0 {
			candidate.MergePostponements(cached.Postponements)
			log.Printf("INFO: Recovered %d postponement(s) for week %s from cache tier", len(candidate.Postponements), weekKey)
			r.writeDurable(ctx, key, candidate)
		}
	}

	// Step 4: recovery pass 2, legacy migration. Pre-ledger clients wrote a
	// single postponement record with no day key; if its date falls inside
	// this week, reconstruct the per-day entry. Runs at most once per week
	// because a non-empty ledger skips this pass entirely.
	changed := false
	if len(candidate.Postponements) == 0 && r.legacy != nil {
		if r.migrateLegacySlot(ctx, weekKey, candidate) {
			changed = true
		}
	}

	// Step 5: repair pass. Every ledger-flagged day must be a rest day no
	// matter what is currently stored there.
	if repaired := candidate.RepairPostponedSlots(); len(repaired) > 0 {
		log.Printf("WARN: Week %s had workouts on postponed day(s) %v; cleared", weekKey, repaired)
		changed = true
	}

	return candidate, changed, nil
}

// Merge is the periodic reconciliation step: re-load the week and decide
// whether the freshly loaded plan should replace the in-memory one.
//
// The in-memory plan never regresses: if it holds ledger entries the fresh
// copy lacks, the fresh copy is corrected to the union and persisted
// immediately. The fresh copy replaces the in-memory one only when it adds
// ledger entries or differs structurally; otherwise the in-memory plan is
// kept to avoid redundant re-renders.
func (r *Reconciler) Merge(ctx context.Context, weekKey string, current *domain.WeeklyPlan) (*domain.WeeklyPlan, bool) {
	fresh, changed, err := r.Load(ctx, weekKey)
	if err != nil || fresh == nil {
		return current, false
	}
	if current == nil {
		if changed {
			r.PersistBoth(ctx, weekKey, fresh)
		}
		return fresh, true
	}

	if !fresh.PostponementKeysSuperset(current.Postponements) {
		// The stored copy lost postponements this device already observed.
		fresh.MergePostponements(current.Postponements)
		fresh.RepairPostponedSlots()
		log.Printf("WARN: Stored plan for week %s regressed its postponement ledger; corrected and persisted", weekKey)
		r.PersistBoth(ctx, weekKey, fresh)
	} else if changed {
		r.PersistBoth(ctx, weekKey, fresh)
	}

	if !current.PostponementKeysSuperset(fresh.Postponements) {
		return fresh, true // fresh carries postponements we did not know about
	}
	if !plansEqual(current, fresh) {
		return fresh, true
	}
	return current, false
}

// PersistBoth writes the plan to both tiers. Each write is one atomic set
// per tier and is best-effort: failures are logged, never surfaced.
func (r *Reconciler) PersistBoth(ctx context.Context, weekKey string, plan *domain.WeeklyPlan) {
	key := PlanKey(weekKey)
	r.writeDurable(ctx, key, plan)
	encoded, err := domain.EncodePlan(plan)
	if err != nil {
		log.Printf("ERROR: Could not encode plan for week %s: %v", weekKey, err)
		return
	}
	if err := r.cache.Set(ctx, key, encoded); err != nil {
		log.Printf("WARN: Cache tier write failed for week %s: %v", weekKey, err)
	}
}

type durableReadState int

const (
	durableOK durableReadState = iota
	durableEmpty
	durableUnreachable
)

// readDurable reads and decodes the durable tier's copy, bounded by the
// configured timeout. Corrupt blobs count as empty (regeneration path).
func (r *Reconciler) readDurable(ctx context.Context, key string) (*domain.WeeklyPlan, durableReadState) {
	tctx, cancel := context.WithTimeout(ctx, r.durableTimeout)
	defer cancel()

	raw, err := r.durable.Get(tctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, durableEmpty
		}
		log.Printf("WARN: Durable tier read failed for %s: %v", key, err)
		return nil, durableUnreachable
	}
	plan, err := domain.DecodePlan(raw)
	if err != nil {
		log.Printf("WARN: Durable tier blob for %s is corrupt, treating as missing: %v", key, err)
		return nil, durableEmpty
	}
	return plan, durableOK
}

// readCache reads and decodes the cache tier's copy. Any failure, including
// a corrupt blob, just means "no cached copy".
func (r *Reconciler) readCache(ctx context.Context, key string) *domain.WeeklyPlan {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("WARN: Cache tier read failed for %s: %v", key, err)
		}
		return nil
	}
	plan, err := domain.DecodePlan(raw)
	if err != nil {
		log.Printf("WARN: Cache tier blob for %s is corrupt, ignoring: %v", key, err)
		return nil
	}
	return plan
}

// writeDurable persists to the durable tier, bounded by the configured
// timeout. Best-effort.
func (r *Reconciler) writeDurable(ctx context.Context, key string, plan *domain.WeeklyPlan) {
	encoded, err := domain.EncodePlan(plan)
	if err != nil {
		log.Printf("ERROR: Could not encode plan for %s: %v", key, err)
		return
	}
	tctx, cancel := context.WithTimeout(ctx, r.durableTimeout)
	defer cancel()
	if err := r.durable.Set(tctx, key, encoded); err != nil {
		log.Printf("WARN: Durable tier write failed for %s: %v", key, err)
	}
}

// migrateLegacySlot reconstructs a per-day ledger entry from the pre-ledger
// single-slot record, if its date falls inside the given week. Reports
// whether an entry was added.
func (r *Reconciler) migrateLegacySlot(ctx context.Context, weekKey string, plan *domain.WeeklyPlan) bool {
	weekStart, err := domain.ParseWeekKey(weekKey)
	if err != nil {
		return false
	}
	rec, err := r.legacy.GetLegacyPostponement(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("WARN: Legacy postponement slot unreadable: %v", err)
		}
		return false
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	date := rec.Date.In(weekStart.Location())
	if date.Before(weekStart) || !date.Before(weekEnd) {
		return false // record belongs to some other week
	}

	day := domain.WeekdayOf(date)
	adjustment := rec.Adjustment
	if !adjustment.IsValid() {
		adjustment = domain.AdjustSame
	}
	plan.SetPostponement(day, &domain.PostponementRecord{
		Postponed:       true,
		Reason:          rec.Reason,
		Date:            rec.Date,
		OriginalDay:     day,
		OriginalWorkout: rec.OriginalWorkout,
		Adjustment:      adjustment,
	})
	log.Printf("INFO: Migrated legacy postponement into week %s (%s)", weekKey, day)
	return true
}

// plansEqual compares two plans by their canonical encoding. Good enough
// for "did anything the UI cares about change".
func plansEqual(a, b *domain.WeeklyPlan) bool {
	ea, errA := domain.EncodePlan(a)
	eb, errB := domain.EncodePlan(b)
	if errA != nil || errB != nil {
		return false
	}
	return ea == eb
}
