package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A document exactly as the original mobile client wrote it: lowercase day
// keys, underscore ledger key, no schemaVersion.
const legacyPlanJSON = `{
	"weekTitle": "Week of Aug 25, 2025",
	"monday": null,
	"tuesday": {"title": "Easy Run", "type": "easy"},
	"wednesday": null,
	"thursday": {"title": "Intervals", "type": "speed", "blocks": [{"label": "400m repeats", "repeats": 8}]},
	"friday": null,
	"saturday": null,
	"sunday": {"title": "Long Run", "type": "long"},
	"_postponements": {
		"tuesday": {
			"postponed": true,
			"reason": "felt sick",
			"date": "2025-08-26T08:00:00Z",
			"originalDay": "tuesday",
			"originalWorkout": {"title": "Easy Run", "type": "easy"},
			"adjustment": "same"
		}
	}
}`

func TestDecodePlanLegacyDocument(t *testing.T) {
	plan, err := DecodePlan(legacyPlanJSON)

	require.NoError(t, err)
	assert.Equal(t, "Week of Aug 25, 2025", plan.WeekTitle)
	require.NotNil(t, plan.Tuesday)
	assert.Equal(t, WorkoutEasy, plan.Tuesday.Type)
	require.NotNil(t, plan.Thursday)
	require.Len(t, plan.Thursday.Blocks, 1)
	assert.Equal(t, 8, plan.Thursday.Blocks[0].Repeats)

	rec := plan.Postponements[Tuesday]
	require.NotNil(t, rec)
	assert.True(t, rec.Postponed)
	assert.Equal(t, "felt sick", rec.Reason)
	require.NotNil(t, rec.OriginalWorkout)

	// Version 0 documents are upgraded in memory.
	assert.Equal(t, PlanSchemaVersion, plan.SchemaVersion)
}

func TestEncodePlanRoundTrip(t *testing.T) {
	original, err := DecodePlan(legacyPlanJSON)
	require.NoError(t, err)

	encoded, err := EncodePlan(original)
	require.NoError(t, err)
	decoded, err := DecodePlan(encoded)
	require.NoError(t, err)

	assert.Equal(t, original, decoded)

	// The canonical encoding is stable, so it doubles as an equality check.
	reencoded, err := EncodePlan(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
}

func TestEncodePlanStampsSchemaVersion(t *testing.T) {
	plan := NewRestWeek("Week of Aug 25, 2025")
	plan.SchemaVersion = 0

	encoded, err := EncodePlan(plan)
	require.NoError(t, err)
	assert.Contains(t, encoded, `"schemaVersion":1`)
}

func TestEncodePlanNil(t *testing.T) {
	_, err := EncodePlan(nil)
	assert.Error(t, err)
}

func TestDecodePlanRejectsCorruptBlobs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "{broken"},
		{"wrong shape", `["a", "b"]`},
		{"unknown workout type", `{"tuesday": {"title": "X", "type": "swim"}}`},
		{"unknown ledger day", `{"_postponements": {"funday": {"postponed": true}}}`},
		{"null ledger entry", `{"_postponements": {"tuesday": null}}`},
		{"unknown match day", `{"_activityMatches": {"someday": {}}}`},
		{"future schema version", `{"schemaVersion": 99}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePlan(tc.raw)
			assert.ErrorIs(t, err, ErrCorruptPlanData)
		})
	}
}

func TestDecodePlanAcceptsUntypedWorkout(t *testing.T) {
	// Old documents sometimes carry a workout with no type at all.
	plan, err := DecodePlan(`{"tuesday": {"title": "Just run"}}`)
	require.NoError(t, err)
	require.NotNil(t, plan.Tuesday)
	assert.Equal(t, WorkoutType(""), plan.Tuesday.Type)
}

func TestDecodeLegacyPostponement(t *testing.T) {
	rec, err := DecodeLegacyPostponement(`{
		"reason": "travel day",
		"date": "2025-08-26T08:00:00Z",
		"originalWorkout": {"title": "Easy Run", "type": "easy"},
		"adjustment": "same"
	}`)

	require.NoError(t, err)
	assert.Equal(t, "travel day", rec.Reason)
	assert.Equal(t, time.Date(2025, time.August, 26, 8, 0, 0, 0, time.UTC), rec.Date)
	require.NotNil(t, rec.OriginalWorkout)
	assert.Equal(t, AdjustSame, rec.Adjustment)
}

func TestDecodeLegacyPostponementRejectsUnusable(t *testing.T) {
	for _, raw := range []string{
		"",
		"{broken",
		`{"reason": "no date at all"}`,
	} {
		_, err := DecodeLegacyPostponement(raw)
		assert.ErrorIs(t, err, ErrCorruptPlanData, "raw %q", raw)
	}
}
