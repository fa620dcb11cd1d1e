package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsonnyboy/medcare/internal/auth"
	"github.com/fsonnyboy/medcare/pkg/transport"
)

type staticSource struct {
	client *transport.Client
}

func (s staticSource) Client() *transport.Client { return s.client }

func newTestClient(server *httptest.Server) *Client {
	return NewClient(staticSource{
		client: transport.New(transport.Config{BaseURL: server.URL, Token: "tok"}),
	})
}

func TestUserData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/get-profile", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("userId"))

		json.NewEncoder(w).Encode(auth.UserDataResponse{
			Profile:    &auth.User{ID: 7, Username: "maria", Status: auth.StatusApproved},
			Statistics: auth.UserStatistics{CartItems: 2, TotalRequests: 4},
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server).UserData(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "maria", resp.Profile.Username)
	assert.Equal(t, 4, resp.Statistics.TotalRequests)
}

func TestUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/profile/update", r.URL.Path)

		var data UpdateData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
		assert.Equal(t, "Maria", data.Name)

		json.NewEncoder(w).Encode(UpdateResponse{Message: "Profile updated"})
	}))
	defer server.Close()

	resp, err := newTestClient(server).Update(context.Background(), UpdateData{UserID: 7, Name: "Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated", resp.Message)
}

func TestUpdatePassword_MismatchNeverDispatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mismatched passwords must not reach the network")
	}))
	defer server.Close()

	err := newTestClient(server).UpdatePassword(context.Background(), UpdatePasswordData{
		UserID:          7,
		CurrentPassword: "old",
		NewPassword:     "new-secret",
		ConfirmPassword: "different",
	})
	assert.Error(t, err)
}

func TestUpdatePassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/update-password", r.URL.Path)
		w.Write([]byte(`{"message":"Password updated"}`))
	}))
	defer server.Close()

	err := newTestClient(server).UpdatePassword(context.Background(), UpdatePasswordData{
		UserID:          7,
		CurrentPassword: "old",
		NewPassword:     "new-secret",
		ConfirmPassword: "new-secret",
	})
	assert.NoError(t, err)
}
