package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fsonnyboy/medcare/pkg/googleauth"
	"github.com/fsonnyboy/medcare/pkg/logger"
	"github.com/fsonnyboy/medcare/pkg/session"
)

type googleExchangeRequest struct {
	IDToken     string        `json:"idToken"`
	AccessToken string        `json:"accessToken"`
	User        GoogleProfile `json:"user"`
}

type googleExchangeResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        *User  `json:"user"`
}

// GoogleLogin signs in through the OAuth collaborator and exchanges the
// provider identity with the backend.
func (m *Manager) GoogleLogin(ctx context.Context) LoginResult {
	return m.googleExchange(ctx)
}

// GoogleSignup is the same backend exchange; the server registers the
// account when the identity is new. A fresh account comes back PENDING with
// no access token, leaving the user known but not logged in.
func (m *Manager) GoogleSignup(ctx context.Context) LoginResult {
	return m.googleExchange(ctx)
}

func (m *Manager) googleExchange(ctx context.Context) LoginResult {
	if m.cfg.Google == nil {
		return LoginResult{Status: LoginError, Message: "Google sign-in is not configured."}
	}

	idToken, accessToken, profile, err := m.cfg.Google.SignIn(ctx)
	if err != nil {
		return LoginResult{Status: LoginError, Message: googleErrorMessage(err)}
	}

	var resp googleExchangeResponse
	req := googleExchangeRequest{IDToken: idToken, AccessToken: accessToken, User: profile}
	if err := m.anonymousClient().Post(ctx, "/auth/google", req, &resp); err != nil {
		return LoginResult{Status: LoginError, Message: loginErrorMessage(err)}
	}

	if resp.User == nil || resp.User.ID == 0 {
		m.log.Error("google exchange returned malformed payload")
		return LoginResult{Status: LoginError, Message: "Google sign in failed"}
	}

	// Pending accounts are cached locally but get no session: the user is
	// known but not authenticated for API calls until approved.
	if resp.AccessToken == "" {
		m.cachePendingUser(ctx, resp.User)
		message := resp.Message
		if message == "" {
			message = "Your account is pending approval."
		}
		return LoginResult{Status: LoginSuccess, Message: message, Pending: true}
	}

	sess := &session.Session{
		Token:  resp.AccessToken,
		UserID: strconv.FormatInt(resp.User.ID, 10),
	}
	if resp.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	m.establish(ctx, sess, resp.User)
	return LoginResult{Status: LoginSuccess}
}

// cachePendingUser stores the profile without creating a session. On
// restart this state is indistinguishable from logged-out except for the
// cached profile, which Load restores for display.
func (m *Manager) cachePendingUser(ctx context.Context, user *User) {
	m.mu.Lock()
	m.gen++
	m.sess = nil
	m.user = user
	m.client = m.buildClient("")
	m.mu.Unlock()

	if data, err := encodeUser(user); err == nil {
		if err := m.store.SaveUser(ctx, data); err != nil {
			m.log.Error("failed to persist pending user", logger.Field{Key: "error", Value: err.Error()})
		}
	}
	m.notify(user)
}

// ProviderAdapter exposes a googleauth.Provider through the
// GoogleAuthenticator interface.
type ProviderAdapter struct {
	Provider *googleauth.Provider
}

func (a ProviderAdapter) SignIn(ctx context.Context) (string, string, GoogleProfile, error) {
	identity, err := a.Provider.SignIn(ctx)
	if err != nil {
		return "", "", GoogleProfile{}, err
	}
	profile := GoogleProfile{
		ID:    identity.GoogleID,
		Name:  identity.Name,
		Email: identity.Email,
		Photo: identity.Photo,
	}
	return identity.IDToken, identity.AccessToken, profile, nil
}

// googleErrorMessage distinguishes user-initiated abandonment from real
// failures so the UI can guide accordingly.
func googleErrorMessage(err error) string {
	switch {
	case errors.Is(err, googleauth.ErrCancelled):
		return "Sign-in was cancelled"
	case errors.Is(err, googleauth.ErrDismissed):
		return "Sign-in was dismissed. Please try again."
	default:
		return "Google Sign-In failed. Please try again."
	}
}
