// Package library implements the collection operations on top of the local
// store: adding search results, state transitions, rating, favourites and
// statistics.
package library

import (
	"context"
	"log"
	"time"

	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/entities"
)

// FriendSource is the slice of the backend client used for friend lookups.
type FriendSource interface {
	GetFriendBook(ctx context.Context, friendID, bookID string) (*entities.Book, error)
}

// Enricher enqueues background detail enrichment for a newly added book.
type Enricher interface {
	EnqueueEnrich(bookID string) error
}

// Stats is the per-state book count summary.
type Stats struct {
	Pending int64 `json:"pending"`
	Reading int64 `json:"reading"`
	Read    int64 `json:"read"`
}

// Service coordinates the local store with the remote sources.
type Service struct {
	books    *books.Repository
	friends  FriendSource
	enricher Enricher

	now func() time.Time
}

// NewService creates the library service. friends and enricher may be nil;
// the corresponding features are then disabled.
func NewService(repo *books.Repository, friends FriendSource, enricher Enricher) *Service {
	return &Service{
		books:    repo,
		friends:  friends,
		enricher: enricher,
		now:      time.Now,
	}
}

// AddBook stores a search result in the collection. Books without a state
// enter the pending queue, where they are ranked after every existing entry:
// priority becomes max(existing pending priorities)+1, or 0 for an empty
// queue.
func (s *Service) AddBook(book entities.Book) error {
	if book.State == "" {
		book.State = entities.StatePending
	}

	if book.State == entities.StatePending {
		max, err := s.books.MaxPendingPriority()
		if err != nil {
			return err
		}
		book.Priority = max + 1
	} else {
		book.Priority = entities.PriorityUnset
	}

	if err := s.books.Insert([]entities.Book{book}); err != nil {
		return err
	}

	if s.enricher != nil {
		if err := s.enricher.EnqueueEnrich(book.ID); err != nil {
			log.Printf("Library: failed to enqueue enrichment for %s: %v", book.ID, err)
		}
	}
	return nil
}

// GetBook returns one book from the collection.
func (s *Service) GetBook(id string) (*entities.Book, error) {
	return s.books.GetByID(id)
}

// GetAll returns the full collection.
func (s *Service) GetAll() ([]entities.Book, error) {
	return s.books.GetAll()
}

// UpdateBook saves user edits to a book already in the collection.
func (s *Service) UpdateBook(book entities.Book) error {
	return s.books.Update([]entities.Book{book})
}

// DeleteBook removes a book, reporting books.ErrNotFound when absent.
func (s *Service) DeleteBook(id string) error {
	book, err := s.books.GetByID(id)
	if err != nil {
		return err
	}
	return s.books.Delete([]entities.Book{*book})
}

// SetState moves a book through the pending → reading → read lifecycle.
// Entering READ stamps the reading date; entering PENDING re-enqueues the
// book at the tail of the pending queue; leaving PENDING clears priority.
func (s *Service) SetState(id string, state entities.BookState) (*entities.Book, error) {
	book, err := s.books.GetByID(id)
	if err != nil {
		return nil, err
	}
	if book.State == state {
		return book, nil
	}

	book.State = state
	switch state {
	case entities.StateRead:
		book.ReadingDate = entities.NewEpochMillis(s.now())
		book.Priority = entities.PriorityUnset
	case entities.StateReading:
		book.ReadingDate = entities.EpochMillis{}
		book.Priority = entities.PriorityUnset
	case entities.StatePending:
		book.ReadingDate = entities.EpochMillis{}
		max, err := s.books.MaxPendingPriority()
		if err != nil {
			return nil, err
		}
		book.Priority = max + 1
	}

	if err := s.books.Update([]entities.Book{*book}); err != nil {
		return nil, err
	}
	return book, nil
}

// Rate sets the user's own rating.
func (s *Service) Rate(id string, rating float64) (*entities.Book, error) {
	book, err := s.books.GetByID(id)
	if err != nil {
		return nil, err
	}
	book.Rating = rating
	if err := s.books.Update([]entities.Book{*book}); err != nil {
		return nil, err
	}
	return book, nil
}

// ToggleFavourite flips the favourite flag.
func (s *Service) ToggleFavourite(id string) (*entities.Book, error) {
	book, err := s.books.GetByID(id)
	if err != nil {
		return nil, err
	}
	book.IsFavourite = !book.IsFavourite
	if err := s.books.Update([]entities.Book{*book}); err != nil {
		return nil, err
	}
	return book, nil
}

// Stats returns the per-state counts.
func (s *Service) Stats() (Stats, error) {
	var stats Stats
	var err error
	if stats.Pending, err = s.books.CountByState(entities.StatePending); err != nil {
		return Stats{}, err
	}
	if stats.Reading, err = s.books.CountByState(entities.StateReading); err != nil {
		return Stats{}, err
	}
	if stats.Read, err = s.books.CountByState(entities.StateRead); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Watch streams collection snapshots, one on subscribe and one after every
// mutation, until ctx is done.
func (s *Service) Watch(ctx context.Context) <-chan []entities.Book {
	return s.books.Watch(ctx)
}

// WatchRead behaves like Watch for the read-only subset.
func (s *Service) WatchRead(ctx context.Context) <-chan []entities.Book {
	return s.books.WatchRead(ctx)
}

// GetFriendBook looks up one book in a friend's public collection.
func (s *Service) GetFriendBook(ctx context.Context, friendID, bookID string) (*entities.Book, error) {
	return s.friends.GetFriendBook(ctx, friendID, bookID)
}
