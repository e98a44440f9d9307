package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/entities"
)

// VolumeSource fetches the full record of a single volume by id.
type VolumeSource interface {
	GetVolume(ctx context.Context, id string) (*entities.Book, error)
}

// BookStore is the slice of the local store the enrichment tasks write to.
type BookStore interface {
	GetByID(id string) (*entities.Book, error)
	GetAll() ([]entities.Book, error)
	Update(books []entities.Book) error
}

// EnrichBookTask fills in the details a search result lacks, such as the
// full description and subtitle, by fetching the complete volume record.
type EnrichBookTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for book enrichment tasks.
func (t EnrichBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichBookProcessor creates a processor function for EnrichBookTask.
// A book deleted between enqueue and execution is not an error.
func EnrichBookProcessor(source VolumeSource, store BookStore) backlite.QueueProcessor[EnrichBookTask] {
	return func(ctx context.Context, task EnrichBookTask) error {
		book, err := store.GetByID(task.BookID)
		if errors.Is(err, books.ErrNotFound) {
			log.Printf("[TASK] Book %s no longer in collection, skipping enrichment", task.BookID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load book %s: %w", task.BookID, err)
		}

		updated, err := enrichBook(ctx, source, store, book)
		if err != nil {
			return fmt.Errorf("enrich book %s: %w", task.BookID, err)
		}

		if len(updated) > 0 {
			log.Printf("[TASK] Enriched book %s (%s): updated %v", task.BookID, book.Title, updated)
		} else {
			log.Printf("[TASK] Book %s (%s): already complete", task.BookID, book.Title)
		}
		return nil
	}
}

// NewEnrichBookQueue creates a backlite queue for book enrichment tasks.
func NewEnrichBookQueue(source VolumeSource, store BookStore) backlite.Queue {
	return backlite.NewQueue(EnrichBookProcessor(source, store))
}

// enrichBook fetches the full volume record and fills the fields the stored
// book is missing. User owned fields (state, rating, priority, favourite,
// reading date, summary) are never touched.
func enrichBook(ctx context.Context, source VolumeSource, store BookStore, book *entities.Book) ([]string, error) {
	remote, err := source.GetVolume(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	updated := mergeDetails(book, remote)
	if len(updated) == 0 {
		return nil, nil
	}

	if err := store.Update([]entities.Book{*book}); err != nil {
		return nil, err
	}
	return updated, nil
}

func mergeDetails(book, remote *entities.Book) []string {
	var updated []string

	if book.Subtitle == "" && remote.Subtitle != "" {
		book.Subtitle = remote.Subtitle
		updated = append(updated, "subtitle")
	}
	if book.Description == "" && remote.Description != "" {
		book.Description = remote.Description
		updated = append(updated, "description")
	}
	if book.Publisher == "" && remote.Publisher != "" {
		book.Publisher = remote.Publisher
		updated = append(updated, "publisher")
	}
	if book.PublishedDate.IsZero() && !remote.PublishedDate.IsZero() {
		book.PublishedDate = remote.PublishedDate
		updated = append(updated, "publishedDate")
	}
	if book.ISBN == "" && remote.ISBN != "" {
		book.ISBN = remote.ISBN
		updated = append(updated, "isbn")
	}
	if book.PageCount == 0 && remote.PageCount != 0 {
		book.PageCount = remote.PageCount
		updated = append(updated, "pageCount")
	}
	if len(book.Categories) == 0 && len(remote.Categories) > 0 {
		book.Categories = remote.Categories
		updated = append(updated, "categories")
	}
	if book.AverageRating == 0 && remote.AverageRating != 0 {
		book.AverageRating = remote.AverageRating
		updated = append(updated, "averageRating")
	}
	if book.RatingsCount == 0 && remote.RatingsCount != 0 {
		book.RatingsCount = remote.RatingsCount
		updated = append(updated, "ratingsCount")
	}
	if book.Thumbnail == "" && remote.Thumbnail != "" {
		book.Thumbnail = remote.Thumbnail
		updated = append(updated, "thumbnail")
	}
	if book.Image == "" && remote.Image != "" {
		book.Image = remote.Image
		updated = append(updated, "image")
	}

	return updated
}
