// Package scheduler triggers periodic collection syncs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sergioat7/reader-collection/internal/preferences"
	booksync "github.com/sergioat7/reader-collection/internal/sync"
)

// ErrSyncInProgress is returned when a sync is requested while another one
// is still running. The pending run is kept, the new request is dropped.
var ErrSyncInProgress = errors.New("sync already in progress")

const syncTimeout = 10 * time.Minute

// SyncScheduler runs the reconciliation service on a periodic schedule and
// serializes manual triggers against it.
type SyncScheduler struct {
	service *booksync.Service
	prefs   *preferences.Store

	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID

	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewSyncScheduler creates a scheduler with a cron schedule (standard five
// field format; the default config is weekly).
func NewSyncScheduler(service *booksync.Service, prefs *preferences.Store, schedule string) *SyncScheduler {
	return &SyncScheduler{
		service:  service,
		prefs:    prefs,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the periodic trigger if automatic sync is enabled. Scheduling
// while already started is a no-op, so a pending job is never replaced.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	enabled, err := s.prefs.AutomaticSync()
	if err != nil {
		return fmt.Errorf("read automatic sync setting: %w", err)
	}
	if !enabled {
		log.Printf("Sync scheduler: disabled")
		return nil
	}

	// The cron entry survives Stop, register it only once.
	if s.entryID == 0 {
		entryID, err := s.cron.AddFunc(s.schedule, func() {
			if _, err := s.SyncNow(); err != nil && !errors.Is(err, ErrSyncInProgress) {
				log.Printf("Sync scheduler: periodic sync failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule sync job: %w", err)
		}
		s.entryID = entryID
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Sync scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}

	ctx := s.cron.Stop()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false
	s.mu.Unlock()

	// Wait outside the lock: an in-flight run still needs it to clear
	// isSyncing before cron reports the job done.
	<-ctx.Done()

	log.Printf("Sync scheduler: stopped")
}

// IsRunning returns whether the periodic trigger is active.
func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress.
func (s *SyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// NextRun returns when the next periodic sync will occur.
func (s *SyncScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// SyncNow runs one reconciliation, shared by the periodic trigger and the
// manual "sync now" action. A request arriving while a run is in flight is
// dropped with ErrSyncInProgress.
func (s *SyncScheduler) SyncNow() (booksync.Diff, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Sync: skipped (already syncing)")
		return booksync.Diff{}, ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	auth, err := s.prefs.AuthData()
	if err != nil {
		return booksync.Diff{}, fmt.Errorf("read session: %w", err)
	}
	if auth.UserID == "" {
		return booksync.Diff{}, errors.New("not logged in")
	}

	log.Printf("Sync: starting for user %s", auth.UserID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	diff, err := s.service.Reconcile(ctx, auth.UserID)
	if err != nil {
		log.Printf("Sync: failed: %v", err)
		return booksync.Diff{}, err
	}

	log.Printf("Sync: finished in %v", time.Since(start).Round(time.Millisecond))
	return diff, nil
}

// PullNow replaces the local collection with the remote snapshot. It shares
// the in-flight guard with SyncNow, so a pull during a sync is dropped.
func (s *SyncScheduler) PullNow() error {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Pull: skipped (already syncing)")
		return ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	auth, err := s.prefs.AuthData()
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if auth.UserID == "" {
		return errors.New("not logged in")
	}

	log.Printf("Pull: starting for user %s", auth.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := s.service.Pull(ctx, auth.UserID); err != nil {
		log.Printf("Pull: failed: %v", err)
		return err
	}

	log.Printf("Pull: finished")
	return nil
}
