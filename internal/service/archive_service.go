package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/repository"
	"alcyxob/runcoach-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ArchiveService exports finished weeks to object storage. Once a week's
// Monday has passed nothing queries its key again; exporting the plan JSON
// gives the training history a durable home and lets the cache tier evict
// freely. The hot stores are left untouched — archiving copies, it does not
// delete.
type ArchiveService interface {
	// ArchivePastWeeks exports every stored week that ended before now.
	// Returns the number of weeks archived.
	ArchivePastWeeks(ctx context.Context, now time.Time) (int, error)

	// ArchiveDownloadURL returns a temporary URL for one archived week.
	ArchiveDownloadURL(ctx context.Context, weekKey string) (string, error)
}

type archiveService struct {
	durable repository.PlanStore
	lister  repository.PlanKeyLister
	archive storage.ArchiveStorage
}

// NewArchiveService creates a new instance of archiveService.
func NewArchiveService(durable repository.PlanStore, lister repository.PlanKeyLister, archive storage.ArchiveStorage) ArchiveService {
	return &archiveService{
		durable: durable,
		lister:  lister,
		archive: archive,
	}
}

func (s *archiveService) ArchivePastWeeks(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.lister.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not list stored weeks: %w", err)
	}

	currentWeekStart := domain.WeekStartOf(now.UTC())
	archived := 0
	for _, key := range keys {
		weekKey, ok := weekKeyFromPlanKey(key)
		if !ok {
			continue
		}
		weekStart, err := domain.ParseWeekKey(weekKey)
		if err != nil {
			log.Printf("WARN: Skipping unparsable week key %q during archive", weekKey)
			continue
		}
		if !weekStart.Before(currentWeekStart) {
			continue // current or future week, stays hot
		}

		raw, err := s.durable.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Printf("WARN: Could not read week %s for archiving: %v", weekKey, err)
			}
			continue
		}
		// Validate before exporting; corrupt blobs are not worth keeping.
		if _, err := domain.DecodePlan(raw); err != nil {
			log.Printf("WARN: Week %s is corrupt, not archiving: %v", weekKey, err)
			continue
		}

		if err := s.archive.PutObject(ctx, archiveObjectKey(weekKey), "application/json", []byte(raw)); err != nil {
			log.Printf("WARN: Archive upload failed for week %s: %v", weekKey, err)
			continue
		}
		archived++
	}

	if archived > 0 {
		log.Printf("INFO: Archived %d past week(s)", archived)
	}
	return archived, nil
}

func (s *archiveService) ArchiveDownloadURL(ctx context.Context, weekKey string) (string, error) {
	if _, err := domain.ParseWeekKey(weekKey); err != nil {
		return "", ErrInvalidWeekKey
	}
	return s.archive.GeneratePresignedDownloadURL(ctx, archiveObjectKey(weekKey), storage.DefaultPresignedURLExpiry)
}

func archiveObjectKey(weekKey string) string {
	return "plans/" + weekKey + ".json"
}

// weekKeyFromPlanKey strips the storage prefix from a stored key, rejecting
// keys that are not weekly plans.
func weekKeyFromPlanKey(key string) (string, bool) {
	const prefix = "weekly_plan_"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return "", false
	}
	return key[len(prefix):], true
}
