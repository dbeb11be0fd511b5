// Package mls talks to the MLSListings JSON API: one search request per run
// and one detail request per candidate.
package mls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mlsscout/internal/types"
)

const (
	searchPath = "/api/search"
	detailPath = "/api/search/PropertyDetailsByMLSNumber/"

	itemsPerPage = 200
	maxErrorBody = 4096
)

// StatusError reports a non-200 answer from the API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client is a thin wrapper around the search and detail endpoints.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient wires an HTTP client; a nil client gets one with the given
// timeout.
func NewClient(baseURL string, client *http.Client, timeout time.Duration) *Client {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// SearchPage is the first page of search results. Records that could not be
// decoded are left out of Candidates and reported in Skipped.
type SearchPage struct {
	Candidates []types.Candidate
	Skipped    []error
	TotalPages int
}

// NoResults reports whether the API said there was nothing to page through.
func (p *SearchPage) NoResults() bool {
	return p.TotalPages == 0
}

// MorePages reports whether results beyond the first page were left behind.
func (p *SearchPage) MorePages() bool {
	return p.TotalPages > 1
}

// Search issues the property search for opts and returns the first page.
func (c *Client) Search(ctx context.Context, opts types.SearchOptions) (*SearchPage, error) {
	body, err := json.Marshal(buildSearchRequest(opts))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	var res searchResponse
	if err := c.do(req, "search", &res); err != nil {
		return nil, err
	}

	page := &SearchPage{}
	if res.PagingInfo != nil {
		page.TotalPages = res.PagingInfo.TotalPagesCount
	}
	if page.NoResults() {
		return page, nil
	}

	page.Candidates = make([]types.Candidate, 0, len(res.Results))
	for i, raw := range res.Results {
		var s summary
		if err := json.Unmarshal(raw, &s); err != nil {
			page.Skipped = append(page.Skipped, fmt.Errorf("decode search result %d: %w: %s", i, err, raw))
			continue
		}
		page.Candidates = append(page.Candidates, types.Candidate{
			MLSNumber:     s.MLSNumber,
			DetailURLPath: s.SiteMapDetailURLPath,
			Raw:           raw,
		})
	}
	return page, nil
}

// FetchDetail loads the detail record for one MLS number.
func (c *Client) FetchDetail(ctx context.Context, mlsNumber string) (types.ListingDetail, error) {
	u := c.baseURL + detailPath + url.PathEscape(mlsNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.ListingDetail{}, fmt.Errorf("build detail request: %w", err)
	}

	var res detailResponse
	if err := c.do(req, "detail "+mlsNumber, &res); err != nil {
		return types.ListingDetail{}, err
	}
	return res.toDetail(mlsNumber), nil
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
