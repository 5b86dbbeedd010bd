package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiveStorage struct {
	objects map[string][]byte
	putErr  error
}

func newFakeArchiveStorage() *fakeArchiveStorage {
	return &fakeArchiveStorage{objects: make(map[string][]byte)}
}

func (f *fakeArchiveStorage) PutObject(ctx context.Context, objectKey string, contentType string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[objectKey] = body
	return nil
}

func (f *fakeArchiveStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://archive.example.com/" + objectKey, nil
}

func (f *fakeArchiveStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(f.objects, objectKey)
	return nil
}

func TestArchivePastWeeks(t *testing.T) {
	const pastWeekKey = "2025-7-18" // Monday 2025-08-18

	durable := newMemStore()
	durable.put(t, pastWeekKey, testPlan())
	durable.put(t, testWeekKey, testPlan())
	durable.data["not_a_plan_key"] = "irrelevant"

	archive := newFakeArchiveStorage()
	svc := NewArchiveService(durable, durable, archive)

	// "Now" falls inside testWeekKey's week, so only the older week goes out.
	now := testWeekStart.AddDate(0, 0, 2)
	archived, err := svc.ArchivePastWeeks(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 1, archived)
	assert.Contains(t, archive.objects, "plans/"+pastWeekKey+".json")
	assert.NotContains(t, archive.objects, "plans/"+testWeekKey+".json")

	// Archiving copies; the hot store keeps everything.
	assert.True(t, durable.has(pastWeekKey))
	assert.True(t, durable.has(testWeekKey))
}

func TestArchivePastWeeksSkipsCorruptPlan(t *testing.T) {
	const pastWeekKey = "2025-7-18"

	durable := newMemStore()
	durable.data[PlanKey(pastWeekKey)] = "{broken"

	archive := newFakeArchiveStorage()
	svc := NewArchiveService(durable, durable, archive)

	archived, err := svc.ArchivePastWeeks(context.Background(), testWeekStart.AddDate(0, 0, 2))

	require.NoError(t, err)
	assert.Zero(t, archived)
	assert.Empty(t, archive.objects)
}

func TestArchiveDownloadURL(t *testing.T) {
	archive := newFakeArchiveStorage()
	svc := NewArchiveService(newMemStore(), newMemStore(), archive)

	url, err := svc.ArchiveDownloadURL(context.Background(), "2025-7-18")
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example.com/plans/2025-7-18.json", url)

	_, err = svc.ArchiveDownloadURL(context.Background(), "nonsense")
	assert.ErrorIs(t, err, ErrInvalidWeekKey)
}
