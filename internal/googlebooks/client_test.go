package googlebooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
	}
}

func TestClient_Search_PaginationParams(t *testing.T) {
	var gotQuery, gotStart, gotMax, gotOrder string
	hasOrder := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotStart = r.URL.Query().Get("startIndex")
		gotMax = r.URL.Query().Get("maxResults")
		gotOrder = r.URL.Query().Get("orderBy")
		_, hasOrder = r.URL.Query()["orderBy"]

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(volumesResponse{TotalItems: 0})
	}))
	defer server.Close()

	client := testClient(server)

	_, err := client.Search(context.Background(), "dune", 2, "")
	require.NoError(t, err)

	assert.Equal(t, "dune", gotQuery)
	assert.Equal(t, "20", gotStart)
	assert.Equal(t, "20", gotMax)
	assert.False(t, hasOrder, "no orderBy parameter expected when order is empty")
	assert.Empty(t, gotOrder)
}

func TestClient_Search_OrderPassthrough(t *testing.T) {
	var gotOrder string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrder = r.URL.Query().Get("orderBy")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(volumesResponse{})
	}))
	defer server.Close()

	client := testClient(server)

	_, err := client.Search(context.Background(), "dune", 1, "newest")
	require.NoError(t, err)
	assert.Equal(t, "newest", gotOrder)
}

func TestClient_Search_MapsVolumes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(volumesResponse{
			TotalItems: 1,
			Items: []volume{
				{
					ID: "vol-1",
					VolumeInfo: volumeInfo{
						Title:         "Dune",
						Subtitle:      "Deluxe Edition",
						Authors:       []string{"Frank Herbert"},
						Publisher:     "Ace",
						PublishedDate: "1965-08-01",
						PageCount:     412,
						Categories:    []string{"Fiction"},
						AverageRating: 4.5,
						RatingsCount:  1234,
						IndustryIdentifiers: []industryIdentifier{
							{Type: "ISBN_10", Identifier: "0441013597"},
							{Type: "ISBN_13", Identifier: "9780441013593"},
						},
						ImageLinks: imageLinks{Thumbnail: "http://img/thumb", Large: "http://img/large"},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := testClient(server)

	result, err := client.Search(context.Background(), "dune", 1, "")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, 1, result.TotalItems)

	book := result.Books[0]
	assert.Equal(t, "vol-1", book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, []string{"Frank Herbert"}, []string(book.Authors))
	assert.Equal(t, "9780441013593", book.ISBN)
	assert.Equal(t, "http://img/thumb", book.Thumbnail)
	assert.Equal(t, "http://img/large", book.Image)
	assert.Equal(t, 412, book.PageCount)
	assert.Equal(t, time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC), book.PublishedDate.Time)
}

func TestClient_GetVolume_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server)

	_, err := client.GetVolume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_GetVolume_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server)

	_, err := client.GetVolume(context.Background(), "vol-1")
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
}

func TestClient_GetVolume_MapsBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/vol-9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(volume{
			ID:         "vol-9",
			VolumeInfo: volumeInfo{Title: "Children of Dune", PublishedDate: "1976"},
		})
	}))
	defer server.Close()

	client := testClient(server)

	book, err := client.GetVolume(context.Background(), "vol-9")
	require.NoError(t, err)
	assert.Equal(t, "vol-9", book.ID)
	assert.Equal(t, "Children of Dune", book.Title)
	assert.Equal(t, 1976, book.PublishedDate.Year())
}

func TestParsePublishedDate(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		year int
	}{
		{"1965-08-01", true, 1965},
		{"1999-04", true, 1999},
		{"2020", true, 2020},
		{"not-a-date", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			parsed, ok := parsePublishedDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.year, parsed.Year())
			}
		})
	}
}
