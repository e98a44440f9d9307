// Package books provides database operations for the local book collection.
//
// Reads are also exposed as watch channels that receive a fresh snapshot
// after every mutation, so callers observe the collection instead of polling.
package books

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/sergioat7/reader-collection/internal/entities"
)

// ErrNotFound signals an absent book on point lookups.
var ErrNotFound = errors.New("book not found")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[int]*watcher
	nextID   int
}

type watcher struct {
	ch    chan []entities.Book
	query func() ([]entities.Book, error)
}

// NewRepository creates a new book repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		watchers: make(map[int]*watcher),
	}
}

// Insert stores new books. A duplicate id is a conflict and propagates as an
// error; callers that mean "replace" must go through Update.
func (r *Repository) Insert(books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	if err := r.db.Create(&books).Error; err != nil {
		return err
	}
	r.notify()
	return nil
}

// Update saves the given books. Ids that are not present are skipped without
// an error.
func (r *Repository) Update(books []entities.Book) error {
	changed := false
	for i := range books {
		var existing entities.Book
		err := r.db.First(&existing, "id = ?", books[i].ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := r.db.Save(&books[i]).Error; err != nil {
			return err
		}
		changed = true
	}
	if changed {
		r.notify()
	}
	return nil
}

// Delete removes the given books. Ids that are not present are skipped.
func (r *Repository) Delete(books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	if err := r.db.Delete(&entities.Book{}, "id IN ?", ids).Error; err != nil {
		return err
	}
	r.notify()
	return nil
}

// DeleteAll clears the whole collection (reset on logout).
func (r *Repository) DeleteAll() error {
	if err := r.db.Where("1 = 1").Delete(&entities.Book{}).Error; err != nil {
		return err
	}
	r.notify()
	return nil
}

// GetAll returns the full collection.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id").Find(&books).Error
	return books, err
}

// GetRead returns the books already read.
func (r *Repository) GetRead() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("state = ?", entities.StateRead).Order("id").Find(&books).Error
	return books, err
}

// GetPending returns the pending queue in priority order.
func (r *Repository) GetPending() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("state = ?", entities.StatePending).Order("priority").Find(&books).Error
	return books, err
}

// GetByID looks up one book, returning ErrNotFound when it is absent.
func (r *Repository) GetByID(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// MaxPendingPriority returns the highest priority in the pending queue, or
// entities.PriorityUnset when the queue is empty.
func (r *Repository) MaxPendingPriority() (int, error) {
	var max sql.NullInt64
	err := r.db.Model(&entities.Book{}).
		Where("state = ? AND priority >= 0", entities.StatePending).
		Select("MAX(priority)").
		Scan(&max).Error
	if err != nil {
		return entities.PriorityUnset, err
	}
	if !max.Valid {
		return entities.PriorityUnset, nil
	}
	return int(max.Int64), nil
}

// CountByState returns how many books are in the given state.
func (r *Repository) CountByState(state entities.BookState) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("state = ?", state).Count(&count).Error
	return count, err
}

// Watch returns a channel carrying the full collection. The current snapshot
// is delivered immediately and a new one after every mutation. Only the
// latest snapshot is buffered; a slow consumer never sees stale data, it
// just skips intermediate states. The channel closes when ctx is done.
func (r *Repository) Watch(ctx context.Context) <-chan []entities.Book {
	return r.watch(ctx, r.GetAll)
}

// WatchRead behaves like Watch for the read-only subset.
func (r *Repository) WatchRead(ctx context.Context) <-chan []entities.Book {
	return r.watch(ctx, r.GetRead)
}

func (r *Repository) watch(ctx context.Context, query func() ([]entities.Book, error)) <-chan []entities.Book {
	w := &watcher{
		ch:    make(chan []entities.Book, 1),
		query: query,
	}

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = w
	if snapshot, err := query(); err == nil {
		w.ch <- snapshot
	} else {
		log.Printf("Books: initial watch snapshot failed: %v", err)
	}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.watchers, id)
		close(w.ch)
	}()

	return w.ch
}

// notify pushes a fresh snapshot to every watcher, replacing any undelivered
// one.
func (r *Repository) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		snapshot, err := w.query()
		if err != nil {
			log.Printf("Books: watch snapshot failed: %v", err)
			continue
		}
		select {
		case <-w.ch:
		default:
		}
		w.ch <- snapshot
	}
}
