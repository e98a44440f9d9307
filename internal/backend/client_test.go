package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergioat7/reader-collection/internal/entities"
)

func staticToken(token string) TokenSource {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func testClient(server *httptest.Server, token TokenSource) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		token:      token,
	}
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var creds credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "reader", creds.Username)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionResponse{Token: "tok-1", UserID: "user-1"})
	}))
	defer server.Close()

	client := testClient(server, nil)

	auth, err := client.Login(context.Background(), "reader", "password123")
	require.NoError(t, err)
	assert.Equal(t, entities.AuthData{Token: "tok-1", UserID: "user-1"}, auth)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server, nil)

	_, err := client.Login(context.Background(), "reader", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestClient_GetBooks_SendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user-1/books", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]entities.Book{
			{ID: "a", Title: "A", State: entities.StateRead},
			{ID: "b", Title: "B", State: entities.StatePending},
		})
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	books, err := client.GetBooks(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0].ID)
}

func TestClient_GetFriendBook_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	_, err := client.GetFriendBook(context.Background(), "friend-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GetFriendBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/friend-1/books/vol-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entities.Book{ID: "vol-1", Title: "Dune"})
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	book, err := client.GetFriendBook(context.Background(), "friend-1", "vol-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
}

func TestClient_SyncBooks(t *testing.T) {
	var got syncRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user-1/books/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	err := client.SyncBooks(context.Background(), "user-1",
		[]entities.Book{{ID: "b", Title: "B"}},
		[]entities.Book{{ID: "c"}},
	)
	require.NoError(t, err)

	require.Len(t, got.BooksToSave, 1)
	assert.Equal(t, "b", got.BooksToSave[0].ID)
	assert.Equal(t, []string{"c"}, got.BooksToRemove)
}

func TestClient_SyncBooks_EmptyBatchesStillPost(t *testing.T) {
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var got syncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Empty(t, got.BooksToSave)
		assert.Empty(t, got.BooksToRemove)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	err := client.SyncBooks(context.Background(), "user-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_SyncBooks_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server, staticToken("tok-1"))

	err := client.SyncBooks(context.Background(), "user-1", nil, nil)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
}
