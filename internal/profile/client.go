package profile

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fsonnyboy/medcare/internal/auth"
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

// UserData returns the full profile plus usage statistics.
func (c *Client) UserData(ctx context.Context, userID int64) (*auth.UserDataResponse, error) {
	query := url.Values{}
	query.Set("userId", strconv.FormatInt(userID, 10))

	var resp auth.UserDataResponse
	if err := c.source.Client().Get(ctx, "/profile/get-profile", query, &resp); err != nil {
		return nil, fmt.Errorf("profile: failed to fetch user data: %w", err)
	}
	return &resp, nil
}

type UpdateData struct {
	UserID        int64  `json:"userId"`
	Name          string `json:"name"`
	MiddleName    string `json:"middleName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	DateOfBirth   string `json:"DateOfBirth"`
	Age           string `json:"age,omitempty"`
	Address       string `json:"address,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Image         string `json:"image,omitempty"`
}

type UpdateResponse struct {
	Message string     `json:"message"`
	Profile *auth.User `json:"profile"`
}

func (c *Client) Update(ctx context.Context, data UpdateData) (*UpdateResponse, error) {
	var resp UpdateResponse
	if err := c.source.Client().Put(ctx, "/profile/update", data, &resp); err != nil {
		return nil, fmt.Errorf("profile: failed to update: %w", err)
	}
	return &resp, nil
}

type UpdatePasswordData struct {
	UserID          int64  `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (c *Client) UpdatePassword(ctx context.Context, data UpdatePasswordData) error {
	if data.NewPassword != data.ConfirmPassword {
		return fmt.Errorf("profile: passwords do not match")
	}
	if err := c.source.Client().Put(ctx, "/profile/update-password", data, nil); err != nil {
		return fmt.Errorf("profile: failed to update password: %w", err)
	}
	return nil
}
