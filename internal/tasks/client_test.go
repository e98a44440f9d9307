package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/entities"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "collection.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	tasksDBPath := filepath.Join(tmpDir, "collection-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "collection.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

type fakeSource struct {
	books map[string]*entities.Book
	err   error
	calls int
}

func (f *fakeSource) GetVolume(ctx context.Context, id string) (*entities.Book, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if book, ok := f.books[id]; ok {
		return book, nil
	}
	return nil, errors.New("volume not found")
}

type fakeStore struct {
	books   map[string]*entities.Book
	updated []entities.Book
}

func (f *fakeStore) GetByID(id string) (*entities.Book, error) {
	if book, ok := f.books[id]; ok {
		clone := *book
		return &clone, nil
	}
	return nil, books.ErrNotFound
}

func (f *fakeStore) GetAll() ([]entities.Book, error) {
	out := make([]entities.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) Update(books []entities.Book) error {
	f.updated = append(f.updated, books...)
	return nil
}

func TestEnrichBookProcessor_FillsMissingDetails(t *testing.T) {
	source := &fakeSource{books: map[string]*entities.Book{
		"vol-1": {
			ID:          "vol-1",
			Title:       "Dune",
			Subtitle:    "A desert planet epic",
			Description: "Full description",
			PageCount:   412,
			Categories:  entities.StringList{"Fiction"},
		},
	}}
	store := &fakeStore{books: map[string]*entities.Book{
		"vol-1": {ID: "vol-1", Title: "Dune", State: entities.StatePending, Rating: 5},
	}}

	processor := EnrichBookProcessor(source, store)
	err := processor(context.Background(), EnrichBookTask{BookID: "vol-1"})
	require.NoError(t, err)

	require.Len(t, store.updated, 1)
	got := store.updated[0]
	assert.Equal(t, "Full description", got.Description)
	assert.Equal(t, "A desert planet epic", got.Subtitle)
	assert.Equal(t, 412, got.PageCount)
	assert.Equal(t, 5.0, got.Rating, "user fields must survive enrichment")
	assert.Equal(t, entities.StatePending, got.State)
}

func TestEnrichBookProcessor_MissingBookIsNotAnError(t *testing.T) {
	source := &fakeSource{}
	store := &fakeStore{books: map[string]*entities.Book{}}

	processor := EnrichBookProcessor(source, store)
	err := processor(context.Background(), EnrichBookTask{BookID: "gone"})
	assert.NoError(t, err)
	assert.Zero(t, source.calls, "no fetch for a deleted book")
}

func TestEnrichBookProcessor_FetchFailurePropagates(t *testing.T) {
	source := &fakeSource{err: errors.New("rate limited")}
	store := &fakeStore{books: map[string]*entities.Book{
		"vol-1": {ID: "vol-1", Title: "Dune"},
	}}

	processor := EnrichBookProcessor(source, store)
	err := processor(context.Background(), EnrichBookTask{BookID: "vol-1"})
	assert.Error(t, err)
	assert.Empty(t, store.updated)
}

func TestEnrichCollectionProcessor_SkipsCompleteBooks(t *testing.T) {
	source := &fakeSource{books: map[string]*entities.Book{
		"incomplete": {ID: "incomplete", Description: "Now complete"},
	}}
	store := &fakeStore{books: map[string]*entities.Book{
		"complete":   {ID: "complete", Description: "Already there"},
		"incomplete": {ID: "incomplete"},
	}}

	processor := EnrichCollectionProcessor(source, store)
	err := processor(context.Background(), EnrichCollectionTask{})
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls, "complete books must not be fetched")
	require.Len(t, store.updated, 1)
	assert.Equal(t, "incomplete", store.updated[0].ID)
}

func TestMergeDetails_NoChangeForCompleteBook(t *testing.T) {
	book := &entities.Book{ID: "a", Description: "desc", Subtitle: "sub", PageCount: 100}
	remote := &entities.Book{ID: "a", Description: "other", Subtitle: "other", PageCount: 200}

	updated := mergeDetails(book, remote)
	assert.Empty(t, updated)
	assert.Equal(t, "desc", book.Description)
}

func TestClientEnqueueEnrich(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "collection.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task EnrichBookTask) error {
		executed <- task.BookID
		return nil
	})
	client.Register(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	require.NoError(t, client.EnqueueEnrich("vol-42"))

	select {
	case id := <-executed:
		assert.Equal(t, "vol-42", id)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestEnrichBookTaskConfig(t *testing.T) {
	cfg := EnrichBookTask{BookID: "vol-1"}.Config()

	assert.Equal(t, "enrich_book", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}
