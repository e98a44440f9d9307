package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/backend"
	"github.com/sergioat7/reader-collection/internal/database/books"
	"github.com/sergioat7/reader-collection/internal/entities"
	"github.com/sergioat7/reader-collection/internal/library"
)

type BooksController struct {
	library *library.Service
}

func NewBooksController(service *library.Service) *BooksController {
	return &BooksController{
		library: service,
	}
}

func (controller *BooksController) GetCollection(c *gin.Context) {
	all, err := controller.library.GetAll()
	if err != nil {
		respondInternalError(c, err, "get collection")
		return
	}

	if state := c.Query("state"); state != "" {
		if !validState(entities.BookState(state)) {
			respondBadRequest(c, "invalid state")
			return
		}
		filtered := make([]entities.Book, 0, len(all))
		for _, book := range all {
			if book.State == entities.BookState(state) {
				filtered = append(filtered, book)
			}
		}
		all = filtered
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": all, "count": len(all)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.library.GetBook(c.Param("id"))
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) AddBook(c *gin.Context) {
	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid book payload")
		return
	}
	if book.ID == "" || book.Title == "" {
		respondBadRequest(c, "id and title are required")
		return
	}
	if book.State != "" && !validState(book.State) {
		respondBadRequest(c, "invalid state")
		return
	}

	if _, err := controller.library.GetBook(book.ID); err == nil {
		respondError(c, http.StatusConflict, "book already in collection")
		return
	}

	if err := controller.library.AddBook(book); err != nil {
		respondInternalError(c, err, "add book")
		return
	}

	stored, err := controller.library.GetBook(book.ID)
	if err != nil {
		respondInternalError(c, err, "add book")
		return
	}
	c.IndentedJSON(http.StatusCreated, stored)
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	id := c.Param("id")
	if _, err := controller.library.GetBook(id); errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}

	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid book payload")
		return
	}
	book.ID = id
	if book.State != "" && !validState(book.State) {
		respondBadRequest(c, "invalid state")
		return
	}

	if err := controller.library.UpdateBook(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	err := controller.library.DeleteBook(c.Param("id"))
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

type stateRequest struct {
	State entities.BookState `json:"state"`
}

func (controller *BooksController) SetState(c *gin.Context) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validState(req.State) {
		respondBadRequest(c, "state must be one of PENDING, READING, READ")
		return
	}

	book, err := controller.library.SetState(c.Param("id"), req.State)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "set state")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

type ratingRequest struct {
	Rating float64 `json:"rating"`
}

func (controller *BooksController) Rate(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid rating payload")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		respondBadRequest(c, "rating must be between 0 and 5")
		return
	}

	book, err := controller.library.Rate(c.Param("id"), req.Rating)
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "rate book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) ToggleFavourite(c *gin.Context) {
	book, err := controller.library.ToggleFavourite(c.Param("id"))
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "toggle favourite")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func (controller *BooksController) GetStats(c *gin.Context) {
	stats, err := controller.library.Stats()
	if err != nil {
		respondInternalError(c, err, "get stats")
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

// WatchCollection streams collection snapshots as server-sent events: the
// current snapshot on connect and a fresh one after every mutation, until the
// client disconnects. ?read=true narrows the stream to read books.
func (controller *BooksController) WatchCollection(c *gin.Context) {
	ctx := c.Request.Context()

	updates := controller.library.Watch(ctx)
	if c.Query("read") == "true" {
		updates = controller.library.WatchRead(ctx)
	}

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("collection", snapshot)
		return true
	})
}

func (controller *BooksController) GetFriendBook(c *gin.Context) {
	book, err := controller.library.GetFriendBook(c.Request.Context(), c.Param("friendId"), c.Param("bookId"))
	if errors.Is(err, backend.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get friend book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

func validState(state entities.BookState) bool {
	switch state {
	case entities.StatePending, entities.StateReading, entities.StateRead:
		return true
	}
	return false
}
