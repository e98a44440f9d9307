// Package account handles login, registration and logout against the
// backend, with credential validation performed before any I/O.
package account

import (
	"context"
	"errors"
	"regexp"

	"github.com/sergioat7/reader-collection/internal/entities"
	"github.com/sergioat7/reader-collection/internal/preferences"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]{3,64}$`)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen/dot only")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// Authenticator is the slice of the backend client the account service needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (entities.AuthData, error)
	Register(ctx context.Context, username, password string) (entities.AuthData, error)
}

// LocalBooks is the piece of the local store cleared on logout.
type LocalBooks interface {
	DeleteAll() error
}

// Service owns the session lifecycle.
type Service struct {
	backend Authenticator
	prefs   *preferences.Store
	books   LocalBooks
}

func NewService(backend Authenticator, prefs *preferences.Store, books LocalBooks) *Service {
	return &Service{backend: backend, prefs: prefs, books: books}
}

// ValidateCredentials checks the credential format. Validation failures are
// synchronous field-level errors and never reach the network.
func ValidateCredentials(username, password string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Login authenticates against the backend and stores the session plus the
// credential cache for autofill.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := ValidateCredentials(username, password); err != nil {
		return err
	}

	auth, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.prefs.StoreAuthData(auth); err != nil {
		return err
	}
	return s.prefs.StoreUserData(entities.UserData{Username: username, Password: password})
}

// Register creates an account and stores its initial session.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := ValidateCredentials(username, password); err != nil {
		return err
	}

	auth, err := s.backend.Register(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.prefs.StoreAuthData(auth); err != nil {
		return err
	}
	return s.prefs.StoreUserData(entities.UserData{Username: username, Password: password})
}

// Logout clears the stored session and resets the local collection.
func (s *Service) Logout() error {
	if err := s.prefs.Logout(); err != nil {
		return err
	}
	return s.books.DeleteAll()
}

// IsLoggedIn reports whether a session is stored.
func (s *Service) IsLoggedIn() bool {
	return s.prefs.IsLoggedIn()
}
