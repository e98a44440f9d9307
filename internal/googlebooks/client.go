// Package googlebooks implements the client for the public book-search API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sergioat7/reader-collection/internal/entities"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"

	// PageSize is the fixed result page size for searches.
	PageSize = 20

	defaultTimeout = 30 * time.Second
)

// Client interfaces with the volumes API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new book-search API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against a non-default API host.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// SearchResult is one page of search results.
type SearchResult struct {
	Books      []entities.Book `json:"books"`
	TotalItems int             `json:"total_items"`
	Page       int             `json:"page"`
}

// Search queries the volumes API. Pages are 1-based and translate to an
// offset of (page-1)*PageSize. order is an optional orderBy passthrough;
// empty means provider default.
func (c *Client) Search(ctx context.Context, query string, page int, order string) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}

	u, err := url.Parse(c.baseURL + "/volumes")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("startIndex", strconv.Itoa((page-1)*PageSize))
	q.Set("maxResults", strconv.Itoa(PageSize))
	if order != "" {
		q.Set("orderBy", order)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &SearchResult{
		TotalItems: payload.TotalItems,
		Page:       page,
		Books:      make([]entities.Book, 0, len(payload.Items)),
	}
	for _, item := range payload.Items {
		result.Books = append(result.Books, item.toBook())
	}
	return result, nil
}

// GetVolume fetches one volume by its catalog id. An absent volume surfaces
// as ErrNotFound, distinct from transport failures.
func (c *Client) GetVolume(ctx context.Context, id string) (*entities.Book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var item volume
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	book := item.toBook()
	return &book, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	AverageRating       float64              `json:"averageRating"`
	RatingsCount        int                  `json:"ratingsCount"`
	ImageLinks          imageLinks           `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type imageLinks struct {
	Thumbnail string `json:"thumbnail"`
	Small     string `json:"small"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
}

func (v volume) toBook() entities.Book {
	info := v.VolumeInfo
	book := entities.Book{
		ID:            v.ID,
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Authors:       entities.StringList(info.Authors),
		Publisher:     info.Publisher,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    entities.StringList(info.Categories),
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		Thumbnail:     info.ImageLinks.Thumbnail,
		Image:         info.ImageLinks.bestImage(),
		Priority:      entities.PriorityUnset,
	}

	if t, ok := parsePublishedDate(info.PublishedDate); ok {
		book.PublishedDate = entities.NewEpochMillis(t)
	}

	// Prefer ISBN-13, fall back to ISBN-10.
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			book.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && book.ISBN == "" {
			book.ISBN = id.Identifier
		}
	}

	return book
}

func (l imageLinks) bestImage() string {
	for _, candidate := range []string{l.Large, l.Medium, l.Small} {
		if candidate != "" {
			return candidate
		}
	}
	return l.Thumbnail
}

// parsePublishedDate accepts the year, year-month and full-date forms the
// volumes API emits.
func parsePublishedDate(raw string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
