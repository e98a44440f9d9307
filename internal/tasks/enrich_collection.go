package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// EnrichCollectionTask sweeps the whole collection and enriches every book
// still missing a description. Runs sequentially to stay within the search
// API rate limits.
type EnrichCollectionTask struct{}

// Config returns the queue configuration for collection sweeps.
func (t EnrichCollectionTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_collection",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichCollectionProcessor creates a processor function for
// EnrichCollectionTask. Individual fetch failures are counted, not fatal.
func EnrichCollectionProcessor(source VolumeSource, store BookStore) backlite.QueueProcessor[EnrichCollectionTask] {
	return func(ctx context.Context, task EnrichCollectionTask) error {
		all, err := store.GetAll()
		if err != nil {
			return fmt.Errorf("load collection: %w", err)
		}

		var enriched, skipped, failed int
		for i := range all {
			if err := ctx.Err(); err != nil {
				return err
			}

			book := all[i]
			if book.Description != "" {
				skipped++
				continue
			}

			updated, err := enrichBook(ctx, source, store, &book)
			if err != nil {
				log.Printf("[TASK] Failed to enrich book %s: %v", book.ID, err)
				failed++
				continue
			}
			if len(updated) > 0 {
				enriched++
			} else {
				skipped++
			}
		}

		log.Printf("[TASK] Collection sweep complete: %d total, %d enriched, %d skipped, %d failed",
			len(all), enriched, skipped, failed)
		return nil
	}
}

// NewEnrichCollectionQueue creates a backlite queue for collection sweeps.
func NewEnrichCollectionQueue(source VolumeSource, store BookStore) backlite.Queue {
	return backlite.NewQueue(EnrichCollectionProcessor(source, store))
}
