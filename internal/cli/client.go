package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/tansaku/internal/models"
)

// Client talks to a running tansaku server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Search runs a search on the server.
func (c *Client) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddContent stores a new item and returns its id.
func (c *Client) AddContent(ctx context.Context, input *models.ContentInput) (string, error) {
	var out struct {
		ContentID string `json:"content_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/content", input, &out); err != nil {
		return "", err
	}
	return out.ContentID, nil
}

// GetContent fetches one item.
func (c *Client) GetContent(ctx context.Context, id string) (*models.ContentItem, error) {
	var out models.ContentItem
	if err := c.do(ctx, http.MethodGet, "/api/v1/content/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similar fetches items similar to id.
func (c *Client) Similar(ctx context.Context, id string, maxResults int) ([]*models.SearchResult, error) {
	path := "/api/v1/content/" + url.PathEscape(id) + "/similar"
	if maxResults > 0 {
		path += "?max_results=" + strconv.Itoa(maxResults)
	}
	var out struct {
		SimilarContent []*models.SearchResult `json:"similar_content"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.SimilarContent, nil
}

// Stats fetches content and search statistics.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest fetches suggestions for query.
func (c *Client) Suggest(ctx context.Context, query string) (*models.Suggestions, error) {
	var out models.Suggestions
	if err := c.do(ctx, http.MethodGet, "/api/v1/suggestions/"+url.PathEscape(query), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(b))
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
