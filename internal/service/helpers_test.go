package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/proposer"
	"alcyxob/runcoach-app/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testWeekKey is the week of Monday 2025-08-25 in the legacy zero-based
// month format.
const testWeekKey = "2025-7-25"

var testWeekStart = time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC)

func easyRun() *domain.Workout {
	return &domain.Workout{Title: "Easy Run", Type: domain.WorkoutEasy}
}

func speedWork() *domain.Workout {
	return &domain.Workout{
		Title: "Intervals",
		Type:  domain.WorkoutSpeed,
		Blocks: []domain.WorkoutBlock{
			{Label: "warm-up", DistanceKm: 2},
			{Label: "400m repeats", Repeats: 8, Pace: "4:10/km"},
		},
	}
}

func longRun() *domain.Workout {
	return &domain.Workout{Title: "Long Run", Type: domain.WorkoutLong, Blocks: []domain.WorkoutBlock{{Label: "steady", DistanceKm: 18}}}
}

// testPlan is the canonical three-day week the scenarios start from:
// easy Tuesday, intervals Thursday, long run Sunday.
func testPlan() *domain.WeeklyPlan {
	return &domain.WeeklyPlan{
		WeekTitle: WeekTitle(testWeekStart),
		Tuesday:   easyRun(),
		Thursday:  speedWork(),
		Sunday:    longRun(),
	}
}

func mustEncode(t *testing.T, plan *domain.WeeklyPlan) string {
	t.Helper()
	raw, err := domain.EncodePlan(plan)
	require.NoError(t, err)
	return raw
}

// memStore is an in-memory PlanStore used as both tiers in tests.
type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	gets   int
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return "", s.getErr
	}
	value, ok := s.data[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return value, nil
}

func (s *memStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *memStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *memStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// put seeds the store with an encoded plan under the week's full storage key.
func (s *memStore) put(t *testing.T, weekKey string, plan *domain.WeeklyPlan) {
	t.Helper()
	raw := mustEncode(t, plan)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[PlanKey(weekKey)] = raw
}

// plan decodes the stored plan for a week, failing the test if it is absent
// or corrupt.
func (s *memStore) plan(t *testing.T, weekKey string) *domain.WeeklyPlan {
	t.Helper()
	s.mu.Lock()
	raw, ok := s.data[PlanKey(weekKey)]
	s.mu.Unlock()
	require.True(t, ok, "no plan stored for week %s", weekKey)
	plan, err := domain.DecodePlan(raw)
	require.NoError(t, err)
	return plan
}

// raw returns the stored blob for a week without failing the test when it
// is absent. Safe to call while a session goroutine is writing.
func (s *memStore) raw(weekKey string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[PlanKey(weekKey)]
	return value, ok
}

func (s *memStore) has(weekKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[PlanKey(weekKey)]
	return ok
}

type fakeLegacySlot struct {
	rec *domain.LegacyPostponement
	err error
}

func (f *fakeLegacySlot) GetLegacyPostponement(ctx context.Context) (*domain.LegacyPostponement, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil {
		return nil, repository.ErrNotFound
	}
	return f.rec, nil
}

// fakeProposer lets each test script the proposal outcome.
type fakeProposer struct {
	adjustFn    func(req proposer.AdjustmentRequest) (*domain.WeeklyPlan, error)
	generateFn  func(req proposer.GenerationRequest) (*domain.WeeklyPlan, error)
	adjustCalls int
}

func (f *fakeProposer) ProposeAdjustedPlan(ctx context.Context, req proposer.AdjustmentRequest) (*domain.WeeklyPlan, error) {
	f.adjustCalls++
	if f.adjustFn == nil {
		return nil, proposer.ErrProposalFailed
	}
	return f.adjustFn(req)
}

func (f *fakeProposer) GenerateWeek(ctx context.Context, req proposer.GenerationRequest) (*domain.WeeklyPlan, error) {
	if f.generateFn == nil {
		return nil, proposer.ErrProposalFailed
	}
	return f.generateFn(req)
}

type fakeActivitySource struct {
	activities []domain.Activity
	err        error
}

func (f *fakeActivitySource) FetchRecentActivities(ctx context.Context) ([]domain.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activities, nil
}

type fakeRatingRepo struct {
	ratings []domain.Rating
	err     error
}

func (f *fakeRatingRepo) Upsert(ctx context.Context, rating *domain.Rating) (primitive.ObjectID, error) {
	if f.err != nil {
		return primitive.NilObjectID, f.err
	}
	id := primitive.NewObjectID()
	rating.ID = id
	rating.CreatedAt = time.Now().UTC()
	for i := range f.ratings {
		if f.ratings[i].ActivityID == rating.ActivityID {
			f.ratings[i] = *rating
			return id, nil
		}
	}
	f.ratings = append(f.ratings, *rating)
	return id, nil
}

func (f *fakeRatingRepo) GetByActivityID(ctx context.Context, activityID string) (*domain.Rating, error) {
	for i := range f.ratings {
		if f.ratings[i].ActivityID == activityID {
			return &f.ratings[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRatingRepo) GetRecent(ctx context.Context, limit int) ([]domain.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit <= 0 || limit > len(f.ratings) {
		limit = len(f.ratings)
	}
	out := make([]domain.Rating, limit)
	copy(out, f.ratings[len(f.ratings)-limit:])
	return out, nil
}

func newTestReconciler(durable, cache *memStore, legacy repository.LegacySlotStore) *Reconciler {
	return NewReconciler(durable, cache, legacy, 200*time.Millisecond)
}
