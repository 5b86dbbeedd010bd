package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptPlanData marks a stored blob that could not be decoded into a
// WeeklyPlan. Callers treat it exactly like "no plan found": the week is
// regenerated rather than crashing the view.
var ErrCorruptPlanData = errors.New("corrupt weekly plan data")

// DecodePlan parses and validates a stored plan blob. Both tiers store
// plans as opaque JSON strings, so this is the single place ambient shape
// gets checked instead of trusted.
func DecodePlan(raw string) (*WeeklyPlan, error) {
	if raw == "" {
		return nil, ErrCorruptPlanData
	}
	var plan WeeklyPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPlanData, err)
	}
	if err := validatePlan(&plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPlanData, err)
	}
	// Version 0 documents predate the schemaVersion field; upgrade in memory
	// so the next persist stamps them.
	if plan.SchemaVersion == 0 {
		plan.SchemaVersion = PlanSchemaVersion
	}
	return &plan, nil
}

// EncodePlan renders a plan for storage. The current schema version is
// always stamped on the way out.
func EncodePlan(plan *WeeklyPlan) (string, error) {
	if plan == nil {
		return "", errors.New("cannot encode nil plan")
	}
	plan.SchemaVersion = PlanSchemaVersion
	data, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func validatePlan(plan *WeeklyPlan) error {
	if plan.SchemaVersion > PlanSchemaVersion {
		return fmt.Errorf("unsupported schema version %d", plan.SchemaVersion)
	}
	for _, d := range WeekDays {
		if w := plan.Day(d); w != nil && w.Type != "" && !w.Type.IsValid() {
			return fmt.Errorf("day %s has unknown workout type %q", d, w.Type)
		}
	}
	for day, rec := range plan.Postponements {
		if !day.IsValid() {
			return fmt.Errorf("postponement ledger keyed by unknown day %q", day)
		}
		if rec == nil {
			return fmt.Errorf("postponement ledger entry for %s is null", day)
		}
	}
	for day := range plan.ActivityMatches {
		if !day.IsValid() {
			return fmt.Errorf("activity match keyed by unknown day %q", day)
		}
	}
	return nil
}

// DecodeLegacyPostponement parses the pre-ledger single-slot record. A blob
// without a usable date is reported as corrupt; migration simply skips it.
func DecodeLegacyPostponement(raw string) (*LegacyPostponement, error) {
	if raw == "" {
		return nil, ErrCorruptPlanData
	}
	var rec LegacyPostponement
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPlanData, err)
	}
	if rec.Date.IsZero() {
		return nil, fmt.Errorf("%w: legacy postponement has no date", ErrCorruptPlanData)
	}
	return &rec, nil
}
