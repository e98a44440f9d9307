package remoteconfig

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher(server *httptest.Server) *Fetcher {
	return &Fetcher{
		httpClient: server.Client(),
		baseURL:    server.URL,
		cached:     Defaults(),
	}
}

func TestFetcher_Refresh_UpdatesCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "es", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Vocabularies{
			Formats: []Entry{{Key: "PHYSICAL", Name: "Físico"}, {Key: "DIGITAL", Name: "Digital"}},
			States:  []Entry{{Key: "PENDING", Name: "Pendiente"}, {Key: "READING", Name: "Leyendo"}, {Key: "READ", Name: "Leído"}},
		})
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	fetcher.Refresh(context.Background(), "es")

	current := fetcher.Current()
	require.Len(t, current.States, 3)
	assert.Equal(t, "Pendiente", current.States[0].Name)
}

func TestFetcher_Refresh_KeepsCacheOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	fetcher.Refresh(context.Background(), "en")

	assert.Equal(t, Defaults(), fetcher.Current())
}

func TestFetcher_Refresh_KeepsCacheOnParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	fetcher.Refresh(context.Background(), "en")

	assert.Equal(t, Defaults(), fetcher.Current())
}

func TestFetcher_Refresh_KeepsCacheOnIncompletePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Vocabularies{})
	}))
	defer server.Close()

	fetcher := testFetcher(server)
	fetcher.Refresh(context.Background(), "en")

	assert.Equal(t, Defaults(), fetcher.Current())
}
