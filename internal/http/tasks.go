package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/tasks"
)

type TasksController struct {
	client *tasks.Client
}

func NewTasksController(client *tasks.Client) *TasksController {
	return &TasksController{
		client: client,
	}
}

// EnrichBook schedules detail enrichment for one book.
func (controller *TasksController) EnrichBook(c *gin.Context) {
	if err := controller.client.EnqueueEnrich(c.Param("id")); err != nil {
		respondInternalError(c, err, "enqueue enrichment")
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "enrichment scheduled"})
}

// EnrichCollection schedules an enrichment sweep over the whole collection.
func (controller *TasksController) EnrichCollection(c *gin.Context) {
	if err := controller.client.EnqueueEnrichCollection(); err != nil {
		respondInternalError(c, err, "enqueue collection sweep")
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "collection sweep scheduled"})
}
