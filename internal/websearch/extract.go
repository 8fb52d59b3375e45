package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/net/html"
)

const (
	// maxExcerpts bounds how many chunks one page contributes.
	maxExcerpts    = 6
	excerptSize    = 400
	excerptOverlap = 40
)

// Pre-compiled to avoid recompilation per page.
var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// Extract fetches a page and returns its title and readable text, split
// into excerpt-sized chunks.
func (c *Client) Extract(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	// 2MB limit keeps hostile pages from ballooning memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	page := &Page{URL: pageURL}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/plain") {
		page.Excerpts = splitExcerpts(string(body))
		return page, nil
	}

	title, text, err := readableText(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	page.Title = title
	page.Excerpts = splitExcerpts(text)

	c.logger.Debug("page extracted", "url", pageURL, "excerpts", len(page.Excerpts))
	return page, nil
}

// readableText strips an HTML document down to its title and visible
// body text. Script, style, and chrome elements are skipped entirely.
func readableText(r io.Reader) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", fmt.Errorf("parse page: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header":
				return
			case "title":
				if title == "" {
					title = textContent(n)
				}
				return
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteString("\n")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	text = multiSpacePattern.ReplaceAllString(sb.String(), " ")
	text = multiNewlinePattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return title, strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// splitExcerpts chunks page text for display alongside generated
// replies.
func splitExcerpts(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(excerptSize),
		textsplitter.WithChunkOverlap(excerptOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil || len(chunks) == 0 {
		return []string{text}
	}
	if len(chunks) > maxExcerpts {
		chunks = chunks[:maxExcerpts]
	}
	return chunks
}
