package fts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	trackererrors "gho-tracker/pkg/errors"
)

// DefaultUserAgent identifies the tracker to the FTS API
const DefaultUserAgent = "GHO-Tracker/1.0"

// Client fetches JSON documents from the FTS API.
// Requests are sequential and never retried; the client timeout is the only deadline.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new FTS client
func NewClient(timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// FetchOverview fetches the plan overview and indexes its GHO plans
func (c *Client) FetchOverview(ctx context.Context, url string) (*PlanIndex, error) {
	var resp overviewResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	idx, err := indexOverview(&resp)
	if err != nil {
		return nil, trackererrors.NewDecodeError(url, err)
	}
	return idx, nil
}

// FetchFlows fetches funding flows grouped by plan and extracts pledge totals
func (c *Client) FetchFlows(ctx context.Context, url string) (*FlowReport, error) {
	var resp flowResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	report, err := parseFlows(&resp)
	if err != nil {
		return nil, trackererrors.NewDecodeError(url, err)
	}
	return report, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return trackererrors.NewFetchError(url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return trackererrors.NewFetchError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return trackererrors.NewFetchError(url, fmt.Errorf("FTS API returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return trackererrors.NewDecodeError(url, err)
	}
	return nil
}
