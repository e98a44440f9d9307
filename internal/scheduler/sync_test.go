package scheduler

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sergioat7/reader-collection/internal/crypto"
	"github.com/sergioat7/reader-collection/internal/entities"
	"github.com/sergioat7/reader-collection/internal/preferences"
	booksync "github.com/sergioat7/reader-collection/internal/sync"
)

type fakeLocal struct {
	books []entities.Book
}

func (f *fakeLocal) GetAll() ([]entities.Book, error)   { return f.books, nil }
func (f *fakeLocal) Insert(books []entities.Book) error { return nil }
func (f *fakeLocal) Update(books []entities.Book) error { return nil }
func (f *fakeLocal) Delete(books []entities.Book) error { return nil }

type fakeRemote struct {
	syncCalls atomic.Int32
}

func (f *fakeRemote) GetBooks(ctx context.Context, userID string) ([]entities.Book, error) {
	return nil, nil
}

func (f *fakeRemote) SyncBooks(ctx context.Context, userID string, toSave, toRemove []entities.Book) error {
	f.syncCalls.Add(1)
	return nil
}

func setupPrefs(t *testing.T) (*preferences.Store, func()) {
	dbPath := "./test_scheduler_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Preference{}))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	encryptor, err := crypto.NewEncryptorFromBase64(key)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return preferences.NewStore(db, encryptor), cleanup
}

func setupScheduler(t *testing.T, schedule string) (*SyncScheduler, *preferences.Store, *fakeRemote, func()) {
	prefs, cleanup := setupPrefs(t)

	remote := &fakeRemote{}
	service := booksync.NewService(&fakeLocal{}, remote)

	return NewSyncScheduler(service, prefs, schedule), prefs, remote, cleanup
}

func TestSyncScheduler_StartDisabledWithoutAutomaticSync(t *testing.T) {
	scheduler, _, _, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.NoError(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning())
	assert.Nil(t, scheduler.NextRun())
}

func TestSyncScheduler_StartAndStop(t *testing.T) {
	scheduler, prefs, _, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.NoError(t, prefs.SetAutomaticSync(true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())
	require.NotNil(t, scheduler.NextRun())

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
}

func TestSyncScheduler_StartTwiceKeepsExistingJob(t *testing.T) {
	scheduler, prefs, _, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.NoError(t, prefs.SetAutomaticSync(true))

	require.NoError(t, scheduler.Start(context.Background()))
	first := scheduler.NextRun()
	require.NotNil(t, first)

	require.NoError(t, scheduler.Start(context.Background()))
	second := scheduler.NextRun()
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestSyncScheduler_SyncNowRequiresLogin(t *testing.T) {
	scheduler, _, remote, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	_, err := scheduler.SyncNow()
	require.Error(t, err)
	assert.Zero(t, remote.syncCalls.Load())
}

func TestSyncScheduler_SyncNowRunsReconciliation(t *testing.T) {
	scheduler, prefs, remote, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.NoError(t, prefs.StoreAuthData(entities.AuthData{Token: "tok", UserID: "user-1"}))

	diff, err := scheduler.SyncNow()
	require.NoError(t, err)
	assert.Empty(t, diff.ToSave)
	assert.Empty(t, diff.ToRemove)
	assert.Equal(t, int32(1), remote.syncCalls.Load())
	assert.False(t, scheduler.IsSyncing())
}

// blockingRemote holds the first GetBooks call until released, keeping a
// periodic sync in flight for as long as the test needs.
type blockingRemote struct {
	startedOnce sync.Once
	started     chan struct{}
	release     chan struct{}
}

func (f *blockingRemote) GetBooks(ctx context.Context, userID string) ([]entities.Book, error) {
	f.startedOnce.Do(func() { close(f.started) })
	<-f.release
	return nil, nil
}

func (f *blockingRemote) SyncBooks(ctx context.Context, userID string, toSave, toRemove []entities.Book) error {
	return nil
}

func TestSyncScheduler_StopWaitsForInFlightSyncWithoutBlockingIt(t *testing.T) {
	prefs, cleanup := setupPrefs(t)
	defer cleanup()

	remote := &blockingRemote{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	scheduler := &SyncScheduler{
		service:  booksync.NewService(&fakeLocal{}, remote),
		prefs:    prefs,
		schedule: "* * * * * *",
		cron:     cron.New(cron.WithSeconds()),
	}

	require.NoError(t, prefs.SetAutomaticSync(true))
	require.NoError(t, prefs.StoreAuthData(entities.AuthData{Token: "tok", UserID: "user-1"}))
	require.NoError(t, scheduler.Start(context.Background()))

	select {
	case <-remote.started:
	case <-time.After(5 * time.Second):
		t.Fatal("periodic sync never started")
	}

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()

	// Stop must wait for the blocked run, not return early.
	select {
	case <-stopped:
		t.Fatal("Stop returned while a sync was still in flight")
	case <-time.After(200 * time.Millisecond):
	}

	close(remote.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop never returned after the in-flight sync finished")
	}

	assert.False(t, scheduler.IsRunning())
	assert.False(t, scheduler.IsSyncing())
}

func TestSyncScheduler_PullNowRequiresLogin(t *testing.T) {
	scheduler, _, _, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.Error(t, scheduler.PullNow())
}

func TestSyncScheduler_PullNow(t *testing.T) {
	scheduler, prefs, remote, cleanup := setupScheduler(t, "0 3 * * 0")
	defer cleanup()

	require.NoError(t, prefs.StoreAuthData(entities.AuthData{Token: "tok", UserID: "user-1"}))

	require.NoError(t, scheduler.PullNow())
	assert.Zero(t, remote.syncCalls.Load())
	assert.False(t, scheduler.IsSyncing())
}

func TestSyncScheduler_InvalidScheduleFailsStart(t *testing.T) {
	scheduler, prefs, _, cleanup := setupScheduler(t, "not a schedule")
	defer cleanup()

	require.NoError(t, prefs.SetAutomaticSync(true))

	err := scheduler.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, scheduler.IsRunning())
}
