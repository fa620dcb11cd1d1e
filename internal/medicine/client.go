package medicine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fsonnyboy/medcare/pkg/transport"
)

// Source yields the transport bound to the current session. The auth
// manager satisfies this; holding the source rather than a client keeps
// calls on the freshest token.
type Source interface {
	Client() *transport.Client
}

// Client wraps the medicine endpoints.
type Client struct {
	source Source
}

func NewClient(source Source) *Client {
	return &Client{source: source}
}

func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	query := url.Values{}
	if params.Query != "" {
		query.Set("query", params.Query)
	}
	if params.Name != "" {
		query.Set("name", params.Name)
	}
	if params.Brand != "" {
		query.Set("brand", params.Brand)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	var resp SearchResponse
	if err := c.source.Client().Get(ctx, "/medicine/search", query, &resp); err != nil {
		return nil, fmt.Errorf("medicine: search failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) Categories(ctx context.Context) (*CategoriesResponse, error) {
	var resp CategoriesResponse
	if err := c.source.Client().Get(ctx, "/medicine/categories", nil, &resp); err != nil {
		return nil, fmt.Errorf("medicine: failed to fetch categories: %w", err)
	}
	return &resp, nil
}

func (c *Client) ByCategory(ctx context.Context, category string, page, limit int) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("category", category)
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp SearchResponse
	if err := c.source.Client().Get(ctx, "/medicine/by-category", query, &resp); err != nil {
		return nil, fmt.Errorf("medicine: failed to fetch category %q: %w", category, err)
	}
	return &resp, nil
}

func (c *Client) ByID(ctx context.Context, id int64) (*Medicine, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(id, 10))

	var resp struct {
		Medicine *Medicine `json:"medicine"`
	}
	if err := c.source.Client().Get(ctx, "/medicine/by-id", query, &resp); err != nil {
		return nil, fmt.Errorf("medicine: failed to fetch medicine %d: %w", id, err)
	}
	return resp.Medicine, nil
}

func (c *Client) Recommended(ctx context.Context, page, limit int) (*SearchResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp SearchResponse
	if err := c.source.Client().Get(ctx, "/medicine/recommended", query, &resp); err != nil {
		return nil, fmt.Errorf("medicine: failed to fetch recommended: %w", err)
	}
	return &resp, nil
}

// CheckRequestLimits fetches the raw monthly/approved counters for a user.
func (c *Client) CheckRequestLimits(ctx context.Context, userID int64) (*LimitCounts, error) {
	query := url.Values{}
	query.Set("userId", strconv.FormatInt(userID, 10))

	var counts LimitCounts
	if err := c.source.Client().Get(ctx, "/medicine/request-limits", query, &counts); err != nil {
		return nil, fmt.Errorf("medicine: failed to check request limits: %w", err)
	}
	return &counts, nil
}

// RequestError carries the structured denial details from a rejected
// medicine request.
type RequestError struct {
	Message     string       `json:"error"`
	StockErrors []StockError `json:"stockErrors,omitempty"`
	UserStatus  string       `json:"status,omitempty"`
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return "medicine: request rejected: " + e.Message
	}
	return "medicine: request rejected"
}

// CreateRequest submits a medicine request. Denials decode into
// *RequestError so callers can render stock and status details.
func (c *Client) CreateRequest(ctx context.Context, data CreateRequestData) (*CreateRequestResponse, error) {
	var resp CreateRequestResponse
	err := c.source.Client().Post(ctx, "/medicine/request", data, &resp)
	if err == nil {
		return &resp, nil
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		reqErr := &RequestError{Message: apiErr.Message}
		// Best effort: the denial body may carry stock or status detail.
		_ = json.Unmarshal(apiErr.Body, reqErr)
		return nil, reqErr
	}
	return nil, fmt.Errorf("medicine: failed to create request: %w", err)
}
