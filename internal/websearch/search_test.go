package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="results">
  <div class="result results_links results_links_deep web-result">
    <h2 class="result__title"><a rel="nofollow" class="result__a" href="https://example.com/cfop">CFOP Method Guide</a></h2>
    <a class="result__snippet" href="https://example.com/cfop">Learn the <b>CFOP</b> method step by step.</a>
  </div>
  <div class="result results_links">
    <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fcubing.example%2Fwiki&amp;rut=abc123">Cubing Wiki</a></h2>
    <a class="result__snippet">Community wiki about speedcubing.</a>
  </div>
  <div class="result results_links">
    <h2><a class="result__a" href="https://example.com/third">Third Result</a></h2>
  </div>
</div>
</body></html>`

func searchServer(t *testing.T, wantQuery string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantQuery, r.URL.Query().Get("q"))
		assert.Equal(t, "TestBot/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	srv := searchServer(t, "cfop method")
	c := New(Options{BaseURL: srv.URL, UserAgent: "TestBot/1.0"})

	results, err := c.Search(context.Background(), "cfop method")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "CFOP Method Guide", results[0].Title)
	assert.Equal(t, "https://example.com/cfop", results[0].URL)
	assert.Equal(t, "Learn the CFOP method step by step.", results[0].Snippet)

	// Redirect links are unwrapped to their target.
	assert.Equal(t, "Cubing Wiki", results[1].Title)
	assert.Equal(t, "https://cubing.example/wiki", results[1].URL)

	assert.Equal(t, "Third Result", results[2].Title)
	assert.Empty(t, results[2].Snippet)
}

func TestSearchCapsResults(t *testing.T) {
	srv := searchServer(t, "cfop method")
	c := New(Options{BaseURL: srv.URL, UserAgent: "TestBot/1.0", MaxResults: 2})

	results, err := c.Search(context.Background(), "cfop method")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestSearchEmptyQuery(t *testing.T) {
	c := New(Options{})
	_, err := c.Search(context.Background(), "   ")
	assert.Error(t, err)
}

func TestDecodeRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			name: "plain link untouched",
			href: "https://example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "protocol relative redirect",
			href: "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%20b&rut=xyz",
			want: "https://example.com/a b",
		},
		{
			name: "absolute redirect",
			href: "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fdeep%2Fpath",
			want: "https://example.com/deep/path",
		},
		{
			name: "empty uddg keeps original",
			href: "https://duckduckgo.com/l/?uddg=",
			want: "https://duckduckgo.com/l/?uddg=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeRedirect(tt.href))
		})
	}
}
