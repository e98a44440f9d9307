// Package http exposes the collection over a JSON API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/account"
	"github.com/sergioat7/reader-collection/internal/database"
	"github.com/sergioat7/reader-collection/internal/googlebooks"
	"github.com/sergioat7/reader-collection/internal/library"
	"github.com/sergioat7/reader-collection/internal/preferences"
	"github.com/sergioat7/reader-collection/internal/remoteconfig"
	"github.com/sergioat7/reader-collection/internal/scheduler"
	"github.com/sergioat7/reader-collection/internal/tasks"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Library  *library.Service
	Search   *googlebooks.Client
	Account  *account.Service
	Prefs    *preferences.Store
	Vocab    *remoteconfig.Fetcher

	// Sync scheduler (optional, sync endpoints are skipped without it)
	SyncScheduler *scheduler.SyncScheduler

	// Task queue client (optional)
	TaskClient *tasks.Client

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Library)
	searchController := NewSearchController(cfg.Search)
	accountController := NewAccountController(cfg.Account)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Account endpoints
	router.POST("/api/auth/login", accountController.Login)
	router.POST("/api/auth/register", accountController.Register)
	router.POST("/api/auth/logout", accountController.Logout)
	router.GET("/api/auth/status", accountController.Status)

	// Volume search endpoints
	router.GET("/api/search", searchController.Search)
	router.GET("/api/search/:id", searchController.GetVolume)

	// Collection endpoints
	router.GET("/api/books", booksController.GetCollection)
	router.GET("/api/books/watch", booksController.WatchCollection)
	router.GET("/api/books/stats", booksController.GetStats)
	router.POST("/api/books", booksController.AddBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PUT("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)
	router.PATCH("/api/books/:id/state", booksController.SetState)
	router.PATCH("/api/books/:id/rating", booksController.Rate)
	router.POST("/api/books/:id/favourite", booksController.ToggleFavourite)

	// Friend collection endpoints
	router.GET("/api/friends/:friendId/books/:bookId", booksController.GetFriendBook)

	// Settings endpoints
	var syncToggle SyncToggle
	if cfg.SyncScheduler != nil {
		syncToggle = cfg.SyncScheduler
	}
	settingsController := NewSettingsController(cfg.Prefs, cfg.Vocab, syncToggle)
	router.GET("/api/settings", settingsController.GetSettings)
	router.PUT("/api/settings", settingsController.UpdateSettings)
	router.GET("/api/settings/vocabularies", settingsController.GetVocabularies)
	router.POST("/api/settings/tutorials/:screen", settingsController.MarkTutorialShown)

	// Sync endpoints
	if cfg.SyncScheduler != nil {
		syncController := NewSyncController(cfg.SyncScheduler)
		router.POST("/api/sync", syncController.SyncNow)
		router.POST("/api/sync/pull", syncController.Pull)
		router.GET("/api/sync/status", syncController.Status)
	}

	// Enrichment task endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.POST("/api/books/:id/enrich", tasksController.EnrichBook)
		router.POST("/api/books/enrich-all", tasksController.EnrichCollection)
	}

	return router
}
