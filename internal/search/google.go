// Package search finds supporting web links for mindmap nodes.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// DefaultGoogleEndpoint is the Custom Search JSON API endpoint.
const DefaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"

// DefaultLimit is the number of links kept per search.
const DefaultLimit = 3

// Searcher returns links for a query. Implementations never fail: upstream
// errors are logged and yield an empty result.
type Searcher interface {
	SearchLinks(ctx context.Context, query string) []mindmap.Link
}

// GoogleConfig configures the Google Custom Search client.
type GoogleConfig struct {
	APIKey string
	CX     string
	// Endpoint overrides DefaultGoogleEndpoint.
	Endpoint string
	// Limit is the number of links kept. Defaults to DefaultLimit.
	Limit int
	// QuerySuffix is appended to every query, e.g. "tutorial".
	QuerySuffix string
	// Timeout for HTTP requests (default: 15s)
	Timeout time.Duration
}

// Google searches with the Custom Search JSON API.
type Google struct {
	cfg    GoogleConfig
	client *http.Client
	logger *slog.Logger
}

// NewGoogle creates a Google searcher.
func NewGoogle(cfg GoogleConfig, logger *slog.Logger) (*Google, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, errors.New("google search requires an API key and a search engine id (cx)")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Google{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "search"),
	}, nil
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Pagemap struct {
			Sitelinks json.RawMessage `json:"sitelinks"`
		} `json:"pagemap"`
	} `json:"items"`
}

// SearchLinks returns up to Limit links. Results that carry sitelinks blocks
// are skipped.
func (g *Google) SearchLinks(ctx context.Context, query string) []mindmap.Link {
	links, err := g.search(ctx, query)
	if err != nil {
		g.logger.Warn("link search failed", "query", query, "error", err)
		return []mindmap.Link{}
	}
	return links
}

func (g *Google) search(ctx context.Context, query string) ([]mindmap.Link, error) {
	q := strings.TrimSpace(strings.TrimSpace(query) + " " + strings.TrimSpace(g.cfg.QuerySuffix))
	if q == "" {
		return []mindmap.Link{}, nil
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("key", g.cfg.APIKey)
	params.Set("cx", g.cfg.CX)
	params.Set("num", strconv.Itoa(min(10, g.cfg.Limit*2)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	links := make([]mindmap.Link, 0, g.cfg.Limit)
	for _, item := range data.Items {
		if len(links) == g.cfg.Limit {
			break
		}
		if hasSitelinks(item.Pagemap.Sitelinks) || !mindmap.ValidURL(item.Link) {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = item.Link
		}
		links = append(links, mindmap.Link{Title: title, Type: mindmap.LinkWebsite, URL: item.Link})
	}
	g.logger.Debug("link search complete", "query", q, "results", len(data.Items), "kept", len(links))
	return links, nil
}

func hasSitelinks(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "[]"
}
