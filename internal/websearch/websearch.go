// Package websearch provides DuckDuckGo HTML search and page text
// extraction, used to pull outside context into the chat without any
// API keys.
package websearch

import (
	"log/slog"
	"net/http"
	"time"
)

const duckduckgoHTML = "https://html.duckduckgo.com/html/"

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Page is the extracted text of one fetched page.
type Page struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Excerpts []string `json:"excerpts"`
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	UserAgent  string
	MaxResults int
	// BaseURL overrides the DuckDuckGo endpoint (for tests and proxies).
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client searches the web and extracts page text.
type Client struct {
	base       string
	userAgent  string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a search client.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; CubeBot/1.0)"
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.MaxResults > 30 {
		opts.MaxResults = 30
	}
	if opts.BaseURL == "" {
		opts.BaseURL = duckduckgoHTML
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		base:       opts.BaseURL,
		userAgent:  opts.UserAgent,
		maxResults: opts.MaxResults,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}
