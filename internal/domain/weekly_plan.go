package domain

import (
	"time"
)

// PlanSchemaVersion is stamped on every plan we write. Version 0 documents
// predate the versioned codec (written by old mobile clients) and are still
// accepted on read.
const PlanSchemaVersion = 1

// PostponementRecord documents one deferred day: why it was deferred, when,
// and what it originally contained. Records are only ever superseded by a
// newer postponement of the same day, never deleted automatically — the
// ledger is the source of truth for "this day was intentionally cleared".
type PostponementRecord struct {
	Postponed       bool           `json:"postponed"`
	Reason          string         `json:"reason"`
	Date            time.Time      `json:"date"`
	OriginalDay     Weekday        `json:"originalDay"`
	OriginalWorkout *Workout       `json:"originalWorkout"`
	Adjustment      AdjustmentKind `json:"adjustment"`
}

// MatchRecord links a planned day to the synced activities that fulfilled
// it. Derived data: rebuilt from scratch after every sync or plan change,
// never patched incrementally.
type MatchRecord struct {
	Workout            *Workout   `json:"workout"`
	Activities         []Activity `json:"activities"`
	MatchedActivityIDs []string   `json:"matchedActivityIds"`
}

// RatingAnalysis is an advisory annotation derived from recent effort
// ratings. The reconciliation core carries it through merges but never
// bases any decision on it.
type RatingAnalysis struct {
	AverageEffort float64   `json:"averageEffort"`
	AverageFeel   float64   `json:"averageFeel"`
	SampleSize    int       `json:"sampleSize"`
	Summary       string    `json:"summary,omitempty"`
	ComputedAt    time.Time `json:"computedAt"`
}

// WeeklyPlan is one Monday-anchored calendar week of training. The seven
// day slots keep their legacy lowercase JSON keys, as do the underscore
// bookkeeping fields, so documents written by the old client parse
// unchanged.
type WeeklyPlan struct {
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	WeekTitle     string `json:"weekTitle,omitempty"`

	Monday    *Workout `json:"monday"`
	Tuesday   *Workout `json:"tuesday"`
	Wednesday *Workout `json:"wednesday"`
	Thursday  *Workout `json:"thursday"`
	Friday    *Workout `json:"friday"`
	Saturday  *Workout `json:"saturday"`
	Sunday    *Workout `json:"sunday"`

	Postponements   map[Weekday]*PostponementRecord `json:"_postponements,omitempty"`
	ActivityMatches map[Weekday]*MatchRecord        `json:"_activityMatches,omitempty"`
	RatingAnalysis  *RatingAnalysis                 `json:"_ratingAnalysis,omitempty"`
}

// NewRestWeek builds the all-rest fallback plan used when no stored plan
// exists and generation failed.
func NewRestWeek(title string) *WeeklyPlan {
	return &WeeklyPlan{
		SchemaVersion: PlanSchemaVersion,
		WeekTitle:     title,
	}
}

// Day returns the workout slot for the given day (nil = rest).
func (p *WeeklyPlan) Day(d Weekday) *Workout {
	switch d {
	case Monday:
		return p.Monday
	case Tuesday:
		return p.Tuesday
	case Wednesday:
		return p.Wednesday
	case Thursday:
		return p.Thursday
	case Friday:
		return p.Friday
	case Saturday:
		return p.Saturday
	case Sunday:
		return p.Sunday
	}
	return nil
}

// SetDay assigns the workout slot for the given day.
func (p *WeeklyPlan) SetDay(d Weekday, w *Workout) {
	switch d {
	case Monday:
		p.Monday = w
	case Tuesday:
		p.Tuesday = w
	case Wednesday:
		p.Wednesday = w
	case Thursday:
		p.Thursday = w
	case Friday:
		p.Friday = w
	case Saturday:
		p.Saturday = w
	case Sunday:
		p.Sunday = w
	}
}

// ScheduledDayCount counts non-rest slots. Postponement must never change
// this by more than -1 (load is moved or merged, not dropped or invented).
func (p *WeeklyPlan) ScheduledDayCount() int {
	n := 0
	for _, d := range WeekDays {
		if p.Day(d) != nil {
			n++
		}
	}
	return n
}

// IsPostponed reports whether the ledger flags the given day as deferred.
func (p *WeeklyPlan) IsPostponed(d Weekday) bool {
	rec, ok := p.Postponements[d]
	return ok && rec != nil && rec.Postponed
}

// SetPostponement records a ledger entry for one day, leaving every other
// day's entry alone.
func (p *WeeklyPlan) SetPostponement(d Weekday, rec *PostponementRecord) {
	if p.Postponements == nil {
		p.Postponements = make(map[Weekday]*PostponementRecord)
	}
	p.Postponements[d] = rec
}

// MergePostponements folds other's ledger entries into p. Entries already
// present in p win on conflict; the result is always a superset of both
// inputs' key sets. Returns the number of entries added.
func (p *WeeklyPlan) MergePostponements(other map[Weekday]*PostponementRecord) int {
	added := 0
	for day, rec := range other {
		if rec == nil {
			continue
		}
		if _, exists := p.Postponements[day]; exists {
			continue
		}
		p.SetPostponement(day, rec)
		added++
	}
	return added
}

// RepairPostponedSlots forces every ledger-flagged day back to nil. This is
// the self-healing pass: an external proposer (or a racing device) may have
// re-inserted a workout on a day the athlete explicitly deferred. Returns
// the days that had to be cleared.
func (p *WeeklyPlan) RepairPostponedSlots() []Weekday {
	var repaired []Weekday
	for _, d := range WeekDays {
		if p.IsPostponed(d) && p.Day(d) != nil {
			p.SetDay(d, nil)
			repaired = append(repaired, d)
		}
	}
	return repaired
}

// PostponementKeysSuperset reports whether p's ledger contains every day
// keyed in other's ledger.
func (p *WeeklyPlan) PostponementKeysSuperset(other map[Weekday]*PostponementRecord) bool {
	for day := range other {
		if _, ok := p.Postponements[day]; !ok {
			return false
		}
	}
	return true
}

// CurrentWorkout derives "today's workout" from the plan. It is always
// recomputed, never stored: a postponed today is a rest day no matter what
// any cached pointer once said.
func (p *WeeklyPlan) CurrentWorkout(now time.Time) *Workout {
	today := WeekdayOf(now)
	if p.IsPostponed(today) {
		return nil
	}
	return p.Day(today)
}

// LegacyPostponement is the single-slot record the pre-ledger client wrote:
// one postponement for the whole account, no day key. Kept only so old
// devices' data can be migrated into the per-day ledger on first load.
type LegacyPostponement struct {
	Reason          string         `json:"reason"`
	Date            time.Time      `json:"date"`
	OriginalWorkout *Workout       `json:"originalWorkout"`
	Adjustment      AdjustmentKind `json:"adjustment"`
}
