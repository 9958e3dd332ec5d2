package search

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/hanzlah101/t3-clone/internal/domain/generation"
	"github.com/hanzlah101/t3-clone/internal/utils/httpclients"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const (
	maxResults        = 5
	maxContentLength  = 1000
	defaultTimeout    = 15 * time.Second
	defaultResultSize = 10
)

// Client queries the Serper search API and adapts the response for the
// web search tool.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
}

var _ generation.SearchClient = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := httpclients.NewClient("serper")
	client.SetTimeout(timeout)
	return &Client{
		httpClient: client,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// Search runs a web search and returns at most five trimmed hits.
func (c *Client) Search(ctx context.Context, query string) ([]generation.SearchResult, error) {
	var result searchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"q":   query,
			"num": defaultResultSize,
		}).
		SetResult(&result).
		Post(c.baseURL)
	if err != nil {
		return nil, platformerrors.NewError(ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			"search request failed", err,
			"7f0c2a4e-52c1-4f4a-9b1a-6f3d8e2b9c01")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			fmt.Sprintf("search API returned status %d", resp.StatusCode()), nil,
			"d3b8f1a9-0c6e-4d2b-8a7f-1e5c9b4d2a02")
	}

	results := make([]generation.SearchResult, 0, maxResults)
	for _, hit := range result.Organic {
		if len(results) == maxResults {
			break
		}
		content := hit.Snippet
		if len(content) > maxContentLength {
			content = content[:maxContentLength]
		}
		results = append(results, generation.SearchResult{
			Title:         hit.Title,
			URL:           hit.Link,
			Content:       content,
			PublishedDate: hit.Date,
		})
	}
	return results, nil
}
