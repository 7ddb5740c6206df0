package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
)

// WebLoader fetches web pages and extracts their readable text. For HTML
// pages it uses readability to keep only the main article content; other
// content types are returned as fetched.
type WebLoader struct {
	client *http.Client
	cache  *loader.Cache
}

// NewWebLoader creates a web loader. A nil client uses http.DefaultClient.
func NewWebLoader(client *http.Client) *WebLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebLoader{
		client: client,
		cache:  loader.NewCache(),
	}
}

// GetFileText fetches doc.Path and extracts its text. Results are cached.
func (l *WebLoader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(doc), func() ([]byte, error) {
		return l.fetch(ctx, doc.Path)
	})
}

func (l *WebLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return io.ReadAll(resp.Body)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return nil, fmt.Errorf("failed to render article text: %w", err)
	}

	return []byte(builder.String()), nil
}
