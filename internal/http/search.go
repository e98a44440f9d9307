package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/googlebooks"
)

type SearchController struct {
	client *googlebooks.Client
}

func NewSearchController(client *googlebooks.Client) *SearchController {
	return &SearchController{
		client: client,
	}
}

// Search proxies a paginated volume search. Pages are 1-based and fixed at
// 20 results each.
func (controller *SearchController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	page, ok := parsePageQuery(c)
	if !ok {
		return
	}

	order := c.Query("order")
	if order != "" && order != "relevance" && order != "newest" {
		respondBadRequest(c, "order must be relevance or newest")
		return
	}

	result, err := controller.client.Search(c.Request.Context(), query, page, order)
	if err != nil {
		respondInternalError(c, err, "search volumes")
		return
	}

	c.IndentedJSON(http.StatusOK, result)
}

func (controller *SearchController) GetVolume(c *gin.Context) {
	book, err := controller.client.GetVolume(c.Request.Context(), c.Param("id"))
	if errors.Is(err, googlebooks.ErrNotFound) {
		respondNotFound(c, "volume")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get volume")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}
