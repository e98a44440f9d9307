// Package sync keeps the local and remote book collections convergent for
// one user.
package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/sergioat7/reader-collection/internal/entities"
)

// LocalStore is the slice of the book repository reconciliation needs.
type LocalStore interface {
	GetAll() ([]entities.Book, error)
	Insert(books []entities.Book) error
	Update(books []entities.Book) error
	Delete(books []entities.Book) error
}

// RemoteStore is the slice of the backend client reconciliation needs.
type RemoteStore interface {
	GetBooks(ctx context.Context, userID string) ([]entities.Book, error)
	SyncBooks(ctx context.Context, userID string, toSave, toRemove []entities.Book) error
}

// Diff is the computed pair of batches for one reconciliation run.
type Diff struct {
	ToSave   []entities.Book
	ToRemove []entities.Book
}

// ComputeDiff pairs the local snapshot against the remote one by id.
// ToSave holds local books absent remotely or whose content differs
// (full-field equality); ToRemove holds remote books absent locally.
func ComputeDiff(local, remote []entities.Book) Diff {
	remoteByID := make(map[string]entities.Book, len(remote))
	for _, b := range remote {
		remoteByID[b.ID] = b
	}
	localIDs := make(map[string]struct{}, len(local))

	var diff Diff
	for _, b := range local {
		localIDs[b.ID] = struct{}{}
		if remoteCopy, ok := remoteByID[b.ID]; !ok || !b.Equal(remoteCopy) {
			diff.ToSave = append(diff.ToSave, b)
		}
	}
	for _, b := range remote {
		if _, ok := localIDs[b.ID]; !ok {
			diff.ToRemove = append(diff.ToRemove, b)
		}
	}
	return diff
}

// Service reconciles the local store against the remote collection. It does
// not serialize concurrent invocations itself; the scheduler is responsible
// for keeping a single run in flight.
type Service struct {
	local  LocalStore
	remote RemoteStore
}

func NewService(local LocalStore, remote RemoteStore) *Service {
	return &Service{local: local, remote: remote}
}

// Reconcile pushes the local state to the remote collection. Both snapshots
// are fully resolved before the single apply call is issued; the apply call
// happens even when both batches are empty, which makes an in-sync run an
// idempotent no-op on the backend. Any failure aborts the whole run.
func (s *Service) Reconcile(ctx context.Context, userID string) (Diff, error) {
	local, err := s.local.GetAll()
	if err != nil {
		return Diff{}, fmt.Errorf("fetch local snapshot: %w", err)
	}

	remote, err := s.remote.GetBooks(ctx, userID)
	if err != nil {
		return Diff{}, fmt.Errorf("fetch remote snapshot: %w", err)
	}

	diff := ComputeDiff(local, remote)
	if err := s.remote.SyncBooks(ctx, userID, diff.ToSave, diff.ToRemove); err != nil {
		return Diff{}, fmt.Errorf("apply remote changes: %w", err)
	}

	log.Printf("Sync: pushed %d books, removed %d", len(diff.ToSave), len(diff.ToRemove))
	return diff, nil
}

// Pull refreshes the local store from the remote snapshot: remote books are
// upserted and local books absent remotely are deleted.
func (s *Service) Pull(ctx context.Context, userID string) error {
	remote, err := s.remote.GetBooks(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch remote snapshot: %w", err)
	}

	local, err := s.local.GetAll()
	if err != nil {
		return fmt.Errorf("fetch local snapshot: %w", err)
	}

	localIDs := make(map[string]struct{}, len(local))
	for _, b := range local {
		localIDs[b.ID] = struct{}{}
	}
	remoteIDs := make(map[string]struct{}, len(remote))

	var toInsert, toUpdate []entities.Book
	for _, b := range remote {
		remoteIDs[b.ID] = struct{}{}
		if _, ok := localIDs[b.ID]; ok {
			toUpdate = append(toUpdate, b)
		} else {
			toInsert = append(toInsert, b)
		}
	}

	var toDelete []entities.Book
	for _, b := range local {
		if _, ok := remoteIDs[b.ID]; !ok {
			toDelete = append(toDelete, b)
		}
	}

	if err := s.local.Delete(toDelete); err != nil {
		return fmt.Errorf("delete local books: %w", err)
	}
	if err := s.local.Update(toUpdate); err != nil {
		return fmt.Errorf("update local books: %w", err)
	}
	if err := s.local.Insert(toInsert); err != nil {
		return fmt.Errorf("insert local books: %w", err)
	}

	log.Printf("Sync: pulled %d books (%d new, %d removed locally)",
		len(remote), len(toInsert), len(toDelete))
	return nil
}
