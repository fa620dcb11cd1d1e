package concern

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fsonnyboy/medcare/pkg/transport"
)

// Source yields the transport bound to the current session.
type Source interface {
	Client() *transport.Client
}

type Client struct {
	source Source
}

func NewClient(source Source) *Client {
	return &Client{source: source}
}

// Status is the concern moderation lifecycle.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusInReview Status = "IN_REVIEW"
	StatusResolved Status = "RESOLVED"
	StatusClosed   Status = "CLOSED"
)

type Concern struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type SubmitData struct {
	UserID      int64  `json:"userId"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type SubmitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ConcernID string `json:"concernId,omitempty"`
}

func (c *Client) Submit(ctx context.Context, data SubmitData) (*SubmitResponse, error) {
	if data.Subject == "" || data.Description == "" {
		return nil, fmt.Errorf("concern: subject and description are required")
	}

	var resp SubmitResponse
	if err := c.source.Client().Post(ctx, "/concern/submit", data, &resp); err != nil {
		return nil, fmt.Errorf("concern: failed to submit: %w", err)
	}
	return &resp, nil
}

type ListResponse struct {
	Concerns []Concern `json:"concerns"`
}

func (c *Client) UserConcerns(ctx context.Context, userID int64) (*ListResponse, error) {
	query := url.Values{}
	query.Set("userId", strconv.FormatInt(userID, 10))

	var resp ListResponse
	if err := c.source.Client().Get(ctx, "/concern/list", query, &resp); err != nil {
		return nil, fmt.Errorf("concern: failed to fetch concerns: %w", err)
	}
	return &resp, nil
}
