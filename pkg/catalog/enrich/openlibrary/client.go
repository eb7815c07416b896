// Package openlibrary implements the book metadata enrichment
// collaborator against the Open Library API. Lookups are best effort:
// every failure (network, non-2xx, non-JSON) is swallowed and reported
// as no data, so a book creation can never fail because of this client.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
)

// DefaultBaseURL is the public Open Library endpoint.
const DefaultBaseURL = "https://openlibrary.org"

// Client fetches book metadata by ISBN.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// NewClient creates a new Open Library client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

var _ catalog.BookMetadataProvider = (*Client)(nil)

// isbnRecord is the slice of the Open Library response we care about.
type isbnRecord struct {
	Title         string `json:"title"`
	NumberOfPages int    `json:"number_of_pages"`
}

// FetchBookMetadata looks up an ISBN. It returns (nil, nil) when the
// record does not exist or the lookup fails for any reason.
func (c *Client) FetchBookMetadata(ctx context.Context, isbn string) (*catalog.BookMetadata, error) {
	url := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("open library request failed", "isbn", isbn, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("open library returned non-2xx", "isbn", isbn, "status", resp.StatusCode)
		return nil, nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		slog.Warn("open library returned non-JSON", "isbn", isbn, "content_type", resp.Header.Get("Content-Type"))
		return nil, nil
	}

	var record isbnRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		slog.Warn("open library response decode failed", "isbn", isbn, "error", err)
		return nil, nil
	}

	return &catalog.BookMetadata{
		Title:     record.Title,
		PageCount: record.NumberOfPages,
	}, nil
}
