// Package client provides an HTTP and WebSocket client for the cube
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client talks to a running cube server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL.
// If baseURL is empty, uses the CUBE_SERVER_URL env var or defaults to
// localhost:8420. Timeout can be configured via CUBE_CLIENT_TIMEOUT.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("CUBE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8420"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 30 * time.Second
	if t := os.Getenv("CUBE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the server's JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a JSON response.
func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, eb.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Candidate is one generated reply variant.
type Candidate struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Result is the server's reply to a generate request.
type Result struct {
	Intent      string      `json:"intent"`
	Candidates  []Candidate `json:"candidates"`
	ChosenIndex int         `json:"chosenIndex"`
	Chosen      string      `json:"chosen"`
}

// Generate requests a reply for the prompt. maxTokens <= 0 uses the
// server default.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (*Result, error) {
	payload := map[string]any{"prompt": prompt}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}

	var result Result
	if err := c.do(ctx, http.MethodPost, "/api/generate", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IntentSummary describes one intent of the loaded corpus.
type IntentSummary struct {
	Name      string `json:"name"`
	Triggers  int    `json:"triggers"`
	Keywords  int    `json:"keywords"`
	Examples  int    `json:"examples"`
	Responses int    `json:"responses"`
}

// Intents lists the loaded corpus intents.
func (c *Client) Intents(ctx context.Context) ([]IntentSummary, error) {
	var result struct {
		Intents []IntentSummary `json:"intents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/intents", nil, &result); err != nil {
		return nil, err
	}
	return result.Intents, nil
}

// StoreInfo describes the server's corpus state.
type StoreInfo struct {
	Reloads      int64     `json:"reloads"`
	Failures     int64     `json:"failures"`
	LastLoadedAt time.Time `json:"last_loaded_at"`
	LastError    string    `json:"last_error,omitempty"`
	Intents      int       `json:"intents"`
	Transitions  int       `json:"transitions"`
}

// Reload asks the server to reload its corpus from the configured
// source.
func (c *Client) Reload(ctx context.Context) (*StoreInfo, error) {
	var info StoreInfo
	if err := c.do(ctx, http.MethodPost, "/api/reload", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// OperationStats holds metrics for a single operation type.
type OperationStats struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`
}

// RuntimeStats holds in-memory server statistics.
type RuntimeStats struct {
	UptimeSeconds float64          `json:"uptimeSeconds"`
	Generate      *OperationStats  `json:"generate,omitempty"`
	Reload        *OperationStats  `json:"reload,omitempty"`
	Search        *OperationStats  `json:"search,omitempty"`
	Extract       *OperationStats  `json:"extract,omitempty"`
	GeneratorWins map[string]int64 `json:"generatorWins,omitempty"`
}

// TranscriptStats summarizes the exchange log.
type TranscriptStats struct {
	Total         int64            `json:"total"`
	ByLabel       map[string]int64 `json:"by_label"`
	AvgDurationMs float64          `json:"avg_duration_ms"`
}

// Stats is the full stats surface.
type Stats struct {
	Store      StoreInfo        `json:"store"`
	Runtime    RuntimeStats     `json:"runtime"`
	Transcript *TranscriptStats `json:"transcript,omitempty"`
}

// Stats fetches the server's metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Search runs a web search through the server's proxy.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var result struct {
		Results []SearchResult `json:"results"`
	}
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Page is an extracted web page.
type Page struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Excerpts []string `json:"excerpts"`
}

// Page fetches and extracts a web page through the server.
func (c *Client) Page(ctx context.Context, pageURL string) (*Page, error) {
	var page Page
	path := "/api/page?url=" + url.QueryEscape(pageURL)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Exchange is one logged prompt/reply pair.
type Exchange struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Prompt     string    `json:"prompt"`
	Intent     string    `json:"intent"`
	Reply      string    `json:"reply"`
	Label      string    `json:"label"`
	Score      float64   `json:"score"`
	DurationMs int64     `json:"duration_ms"`
}

// History fetches recent exchanges, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]Exchange, error) {
	path := "/api/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var result struct {
		Exchanges []Exchange `json:"exchanges"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Exchanges, nil
}

// Healthy reports whether the server answers its health check.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: %s", resp.Status)
	}
	return nil
}
