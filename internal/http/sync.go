package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/scheduler"
)

type SyncController struct {
	scheduler *scheduler.SyncScheduler
}

func NewSyncController(syncScheduler *scheduler.SyncScheduler) *SyncController {
	return &SyncController{
		scheduler: syncScheduler,
	}
}

// SyncNow runs one reconciliation against the backend. A request arriving
// while another sync is in flight gets a 409.
func (controller *SyncController) SyncNow(c *gin.Context) {
	diff, err := controller.scheduler.SyncNow()
	if errors.Is(err, scheduler.ErrSyncInProgress) {
		respondError(c, http.StatusConflict, "sync already in progress")
		return
	}
	if err != nil {
		respondInternalError(c, err, "sync")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"saved":   len(diff.ToSave),
		"removed": len(diff.ToRemove),
	})
}

// Pull replaces the local collection with the remote snapshot, used after
// logging in on a fresh database.
func (controller *SyncController) Pull(c *gin.Context) {
	err := controller.scheduler.PullNow()
	if errors.Is(err, scheduler.ErrSyncInProgress) {
		respondError(c, http.StatusConflict, "sync already in progress")
		return
	}
	if err != nil {
		respondInternalError(c, err, "pull")
		return
	}
	respondSuccess(c, "collection refreshed from backend")
}

func (controller *SyncController) Status(c *gin.Context) {
	status := gin.H{
		"scheduler_running": controller.scheduler.IsRunning(),
		"syncing":           controller.scheduler.IsSyncing(),
	}
	if next := controller.scheduler.NextRun(); next != nil {
		status["next_run"] = next
	}
	c.IndentedJSON(http.StatusOK, status)
}
