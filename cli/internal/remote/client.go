package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lain-code/lain/internal/aggregator"
	"github.com/lain-code/lain/internal/model"
)

// Client queries a running lain-server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// errorResponse is the body lain-server sends with a non-200 status
type errorResponse struct {
	Error string `json:"error"`
}

// NewClient creates a new client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Projects fetches the project listing, ordered by folder
func (c *Client) Projects(ctx context.Context) ([]model.ProjectEntry, error) {
	var byFolder map[string]model.ProjectEntry
	if err := c.get(ctx, "/api/projects", nil, &byFolder); err != nil {
		return nil, err
	}
	return sortedProjects(byFolder), nil
}

// Stats fetches aggregate stats for opts
func (c *Client) Stats(ctx context.Context, opts aggregator.StatsOptions) (model.AggregateStats, error) {
	q := url.Values{}
	if len(opts.Projects) > 0 {
		q.Set("projects", strings.Join(opts.Projects, ","))
	}
	if opts.Start != "" {
		q.Set("start", opts.Start)
	}
	if opts.End != "" {
		q.Set("end", opts.End)
	}

	var stats model.AggregateStats
	err := c.get(ctx, "/api/stats", q, &stats)
	return stats, err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
