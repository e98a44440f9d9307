// Package backend implements the client for the user's backend-hosted book
// collection.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sergioat7/reader-collection/internal/entities"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token for authenticated calls. It is a
// func so the client never holds credentials itself; the preferences store
// stays the single owner of the session.
type TokenSource func(ctx context.Context) (string, error)

// Client interfaces with the collection backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
}

// NewClient creates a backend client. token may be nil for a client only
// used for login and registration.
func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		token:   token,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (entities.AuthData, error) {
	return c.session(ctx, "/login", username, password)
}

// Register creates an account and returns its initial session.
func (c *Client) Register(ctx context.Context, username, password string) (entities.AuthData, error) {
	return c.session(ctx, "/register", username, password)
}

func (c *Client) session(ctx context.Context, path, username, password string) (entities.AuthData, error) {
	body, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return entities.AuthData{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return entities.AuthData{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.AuthData{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusConflict {
		return entities.AuthData{}, ErrInvalidCredentials
	}
	if err := checkStatus(resp, http.StatusOK, http.StatusCreated); err != nil {
		return entities.AuthData{}, err
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return entities.AuthData{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return entities.AuthData{Token: session.Token, UserID: session.UserID}, nil
}

// GetBooks fetches the authoritative remote collection for a user.
func (c *Client) GetBooks(ctx context.Context, userID string) ([]entities.Book, error) {
	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.userPath(userID)+"/books", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var books []entities.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return books, nil
}

// GetFriendBook fetches one book from a friend's public collection. An
// absent book surfaces as ErrNotFound, distinct from transport failures.
func (c *Client) GetFriendBook(ctx context.Context, friendID, bookID string) (*entities.Book, error) {
	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.userPath(friendID)+"/books/"+url.PathEscape(bookID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var book entities.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &book, nil
}

type syncRequest struct {
	BooksToSave   []entities.Book `json:"books_to_save"`
	BooksToRemove []string        `json:"books_to_remove"`
}

// SyncBooks applies a save batch and a remove batch in one call. The backend
// treats the pair as a single unit; there is no partial-apply reporting.
func (c *Client) SyncBooks(ctx context.Context, userID string, toSave []entities.Book, toRemove []entities.Book) error {
	payload := syncRequest{
		BooksToSave:   toSave,
		BooksToRemove: make([]string, 0, len(toRemove)),
	}
	if payload.BooksToSave == nil {
		payload.BooksToSave = []entities.Book{}
	}
	for _, b := range toRemove {
		payload.BooksToRemove = append(payload.BooksToRemove, b.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := c.newAuthorizedRequest(ctx, http.MethodPost, c.userPath(userID)+"/books/sync", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, http.StatusOK, http.StatusNoContent)
}

func (c *Client) userPath(userID string) string {
	return c.baseURL + "/users/" + url.PathEscape(userID)
}

func (c *Client) newAuthorizedRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func checkStatus(resp *http.Response, allowed ...int) error {
	for _, status := range allowed {
		if resp.StatusCode == status {
			return nil
		}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
}
