package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergioat7/reader-collection/internal/account"
	"github.com/sergioat7/reader-collection/internal/backend"
)

type AccountController struct {
	service *account.Service
}

func NewAccountController(service *account.Service) *AccountController {
	return &AccountController{
		service: service,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (controller *AccountController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid credentials payload")
		return
	}

	err := controller.service.Login(c.Request.Context(), req.Username, req.Password)
	if isValidationError(err) {
		respondBadRequest(c, err.Error())
		return
	}
	if errors.Is(err, backend.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		respondInternalError(c, err, "login")
		return
	}
	respondSuccess(c, "logged in")
}

func (controller *AccountController) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid credentials payload")
		return
	}

	err := controller.service.Register(c.Request.Context(), req.Username, req.Password)
	if isValidationError(err) {
		respondBadRequest(c, err.Error())
		return
	}
	if errors.Is(err, backend.ErrInvalidCredentials) {
		respondError(c, http.StatusConflict, "username is not available")
		return
	}
	if err != nil {
		respondInternalError(c, err, "register")
		return
	}
	respondSuccess(c, "registered")
}

func (controller *AccountController) Logout(c *gin.Context) {
	if err := controller.service.Logout(); err != nil {
		respondInternalError(c, err, "logout")
		return
	}
	respondSuccess(c, "logged out")
}

func (controller *AccountController) Status(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"logged_in": controller.service.IsLoggedIn()})
}

func isValidationError(err error) bool {
	return errors.Is(err, account.ErrUsernameRequired) ||
		errors.Is(err, account.ErrUsernameInvalid) ||
		errors.Is(err, account.ErrPasswordRequired) ||
		errors.Is(err, account.ErrPasswordTooShort)
}
