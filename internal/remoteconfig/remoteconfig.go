// Package remoteconfig fetches the format and state vocabularies from the
// backend. Fetching is best effort: any transport or parse failure keeps the
// previously cached values in effect and is never surfaced to callers.
package remoteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sergioat7/reader-collection/internal/entities"
)

// Entry is one vocabulary value with its display name in the requested
// language.
type Entry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Vocabularies holds the configurable format and state vocabularies.
type Vocabularies struct {
	Formats []Entry `json:"formats"`
	States  []Entry `json:"states"`
}

// Defaults returns the built-in vocabularies used until a fetch succeeds.
func Defaults() Vocabularies {
	return Vocabularies{
		Formats: []Entry{
			{Key: string(entities.FormatPhysical), Name: "Physical"},
			{Key: string(entities.FormatDigital), Name: "Digital"},
		},
		States: []Entry{
			{Key: string(entities.StatePending), Name: "Pending"},
			{Key: string(entities.StateReading), Name: "Reading"},
			{Key: string(entities.StateRead), Name: "Read"},
		},
	}
}

// Fetcher caches the latest successfully fetched vocabularies.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string

	mu     sync.RWMutex
	cached Vocabularies
}

func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cached:  Defaults(),
	}
}

// Current returns the cached vocabularies.
func (f *Fetcher) Current() Vocabularies {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cached
}

// Refresh fetches the vocabularies for the given language. Failures are
// logged and swallowed; the cache only changes on a successful parse.
func (f *Fetcher) Refresh(ctx context.Context, language string) {
	fetched, err := f.fetch(ctx, language)
	if err != nil {
		log.Printf("Remote config: refresh failed, keeping cached vocabularies: %v", err)
		return
	}

	f.mu.Lock()
	f.cached = fetched
	f.mu.Unlock()
}

func (f *Fetcher) fetch(ctx context.Context, language string) (Vocabularies, error) {
	u, err := url.Parse(f.baseURL + "/config")
	if err != nil {
		return Vocabularies{}, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("language", language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Vocabularies{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Vocabularies{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Vocabularies{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var fetched Vocabularies
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return Vocabularies{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(fetched.Formats) == 0 || len(fetched.States) == 0 {
		return Vocabularies{}, fmt.Errorf("incomplete vocabularies in response")
	}
	return fetched, nil
}
