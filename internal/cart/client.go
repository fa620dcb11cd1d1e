package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fsonnyboy/medcare/internal/medicine"
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

// Item is a cart line with its availability status.
type Item struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	MedicineID     int64          `json:"medicineId"`
	Quantity       int            `json:"quantity"`
	AddedAt        string         `json:"addedAt"`
	UpdatedAt      string         `json:"updatedAt"`
	IsAvailable    bool           `json:"isAvailable"`
	AvailableStock int            `json:"availableStock"`
	Medicine       medicine.Basic `json:"medicine"`
}

type Summary struct {
	TotalItems      int `json:"totalItems"`
	TotalQuantity   int `json:"totalQuantity"`
	AvailableItems  int `json:"availableItems"`
	OutOfStockItems int `json:"outOfStockItems"`
}

type ItemsResponse struct {
	CartItems   []Item              `json:"cartItems"`
	CartSummary Summary             `json:"cartSummary"`
	Pagination  medicine.Pagination `json:"pagination"`
}

type AddData struct {
	UserID     int64 `json:"userId"`
	MedicineID int64 `json:"medicineId"`
	Quantity   int   `json:"quantity"`
}

type AddResponse struct {
	Message   string `json:"message"`
	CartCount int    `json:"cartCount"`
}

// StockConflictError is returned when the requested quantity exceeds the
// available stock.
type StockConflictError struct {
	Message           string `json:"error"`
	AvailableStock    int    `json:"availableStock"`
	RequestedQuantity int    `json:"requestedQuantity"`
	CurrentQuantity   int    `json:"currentQuantity"`
	TotalQuantity     int    `json:"totalQuantity"`
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("cart: %s (available %d, requested %d)",
		e.Message, e.AvailableStock, e.RequestedQuantity)
}

func (c *Client) Items(ctx context.Context, userID int64, page, limit int) (*ItemsResponse, error) {
	query := url.Values{}
	query.Set("userId", strconv.FormatInt(userID, 10))
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp ItemsResponse
	if err := c.source.Client().Get(ctx, "/cart/items", query, &resp); err != nil {
		return nil, fmt.Errorf("cart: failed to fetch items: %w", err)
	}
	return &resp, nil
}

func (c *Client) Add(ctx context.Context, data AddData) (*AddResponse, error) {
	var resp AddResponse
	err := c.source.Client().Post(ctx, "/cart/add", data, &resp)
	if err == nil {
		return &resp, nil
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		var conflict StockConflictError
		if json.Unmarshal(apiErr.Body, &conflict) == nil && conflict.AvailableStock > 0 {
			return nil, &conflict
		}
	}
	return nil, fmt.Errorf("cart: failed to add item: %w", err)
}

type DeleteResponse struct {
	Message   string `json:"message"`
	CartCount int    `json:"cartCount"`
}

func (c *Client) DeleteItem(ctx context.Context, userID, cartItemID int64) (*DeleteResponse, error) {
	body := map[string]int64{"userId": userID, "cartItemId": cartItemID}

	var resp DeleteResponse
	if err := c.source.Client().Delete(ctx, "/cart/delete", body, &resp); err != nil {
		return nil, fmt.Errorf("cart: failed to delete item: %w", err)
	}
	return &resp, nil
}
