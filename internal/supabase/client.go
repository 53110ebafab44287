// Package supabase reads the team grades table from a Supabase (PostgREST) endpoint.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PageSize is the number of rows requested per page.
const PageSize = 1000

// Source provides the rows of the grades table.
type Source interface {
	Grades(ctx context.Context) ([]GradeRow, error)
}

// Client is a paginated reader of one table.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	table      string
	pageSize   int
}

// NewClient returns a client for the table at the project URL, authenticated with key.
func NewClient(projectURL, key, table string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(projectURL, "/"),
		key:        key,
		table:      table,
		pageSize:   PageSize,
	}
}

func (c *Client) newRequest(ctx context.Context, method string) (*http.Request, error) {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(c.table) + "?select=*"
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("supabase status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// Count returns the exact number of rows in the table.
func (c *Client) Count(ctx context.Context) (int, error) {
	req, err := c.newRequest(ctx, http.MethodHead)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")
	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from a PostgREST range such as "0-999/4521" or "*/0".
func parseContentRange(cr string) (int, error) {
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q", cr)
	}
	n, err := strconv.Atoi(cr[i+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q: %w", cr, err)
	}
	return n, nil
}

// Page returns rows [start, end] inclusive.
func (c *Client) Page(ctx context.Context, start, end int) ([]GradeRow, error) {
	req, err := c.newRequest(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", start, end))
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rows []GradeRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows %d-%d: %w", start, end, err)
	}
	return rows, nil
}

// Grades downloads the whole table page by page and returns it sorted by game id.
func (c *Client) Grades(ctx context.Context) ([]GradeRow, error) {
	total, err := c.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", c.table, err)
	}

	rows := make([]GradeRow, 0, total)
	for len(rows) < total {
		start := len(rows)
		end := start + c.pageSize - 1
		if end >= total {
			end = total - 1
		}
		page, err := c.Page(ctx, start, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return nil, fmt.Errorf("table %s: empty page at row %d of %d", c.table, start, total)
		}
		rows = append(rows, page...)
	}
	slog.Debug("downloaded grades", "table", c.table, "rows", len(rows))

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].GameID < rows[j].GameID })
	return rows, nil
}
