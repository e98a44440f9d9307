package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/account"
	"github.com/sergioat7/reader-collection/internal/backend"
	"github.com/sergioat7/reader-collection/internal/config"
	"github.com/sergioat7/reader-collection/internal/crypto"
	"github.com/sergioat7/reader-collection/internal/database"
	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/googlebooks"
	http_controllers "github.com/sergioat7/reader-collection/internal/http"
	"github.com/sergioat7/reader-collection/internal/library"
	"github.com/sergioat7/reader-collection/internal/preferences"
	"github.com/sergioat7/reader-collection/internal/remoteconfig"
	"github.com/sergioat7/reader-collection/internal/scheduler"
	booksync "github.com/sergioat7/reader-collection/internal/sync"
	"github.com/sergioat7/reader-collection/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Reader Collection v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	encryptor, err := newEncryptor(cfg.Encryption)
	if err != nil {
		log.Fatalf("Failed to initialize encryption: %v", err)
	}

	prefs := preferences.NewStore(db.DB, encryptor)
	repo := books.NewRepository(db.DB)

	searchClient := googlebooks.NewClientWithBaseURL(cfg.GoogleBooks.BaseURL)
	backendClient := backend.NewClient(cfg.Backend.BaseURL, func(ctx context.Context) (string, error) {
		auth, err := prefs.AuthData()
		if err != nil {
			return "", err
		}
		return auth.Token, nil
	})

	// Format/state vocabularies, refreshed in the background
	vocab := remoteconfig.NewFetcher(cfg.RemoteConfig.BaseURL)
	vocabCtx, vocabCancel := context.WithCancel(context.Background())
	go refreshVocabularies(vocabCtx, vocab, prefs, cfg.RemoteConfig.RefreshInterval)

	// Task queue for background enrichment
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var enricher library.Enricher
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewEnrichBookQueue(searchClient, repo),
			tasks.NewEnrichCollectionQueue(searchClient, repo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		enricher = taskClient
	}

	libraryService := library.NewService(repo, backendClient, enricher)
	accountService := account.NewService(backendClient, prefs, repo)
	syncService := booksync.NewService(repo, backendClient)

	syncScheduler := scheduler.NewSyncScheduler(syncService, prefs, cfg.Sync.Schedule)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: sync scheduler did not start: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		Library:       libraryService,
		Search:        searchClient,
		Account:       accountService,
		Prefs:         prefs,
		Vocab:         vocab,
		SyncScheduler: syncScheduler,
		TaskClient:    taskClient,
		Version:       version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		vocabCancel()
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// newEncryptor builds the preferences encryptor from config. A configured
// key wins over a passphrase. Without either, a random key is generated and
// stored sessions will not survive a restart.
func newEncryptor(cfg config.Encryption) (*crypto.Encryptor, error) {
	if cfg.Key != "" {
		return crypto.NewEncryptorFromBase64(cfg.Key)
	}
	if cfg.Passphrase != "" {
		return crypto.NewEncryptorFromPassphrase(cfg.Passphrase, "reader-collection")
	}

	log.Printf("WARNING: no encryption key configured, sessions will not survive restarts. Set 'ENCRYPTION_KEY' or 'ENCRYPTION_PASSPHRASE'.")
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return crypto.NewEncryptorFromBase64(key)
}

// refreshVocabularies keeps the format/state vocabularies current for the
// configured UI language.
func refreshVocabularies(ctx context.Context, vocab *remoteconfig.Fetcher, prefs *preferences.Store, interval time.Duration) {
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	refresh := func() {
		language, err := prefs.Language()
		if err != nil {
			log.Printf("Remote config: failed to read language: %v", err)
			return
		}
		refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		vocab.Refresh(refreshCtx, language)
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
