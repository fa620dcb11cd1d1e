package googleauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	// ErrCancelled means the user denied the consent screen.
	ErrCancelled = errors.New("googleauth: sign-in was cancelled")
	// ErrDismissed means the user never completed the redirect in time.
	ErrDismissed = errors.New("googleauth: sign-in was dismissed")
	// ErrStateMismatch means the callback state did not match ours.
	ErrStateMismatch = errors.New("googleauth: state mismatch")
)

// DefaultWait bounds how long a sign-in attempt waits for the redirect.
const DefaultWait = 2 * time.Minute

// Identity is the provider identity handed to the backend exchange.
type Identity struct {
	IDToken     string
	AccessToken string
	GoogleID    string
	Email       string
	Name        string
	Photo       string
}

// Provider runs the native-app Google sign-in flow: PKCE authorization via
// the system browser, a loopback listener for the redirect, code exchange,
// and ID-token verification.
type Provider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
	wait     time.Duration

	// openURL hands the consent URL to the environment (system browser in
	// production, a scripted visitor in tests).
	openURL func(url string) error
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Wait         time.Duration
	OpenURL      func(url string) error
}

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	wait := cfg.Wait
	if wait <= 0 {
		wait = DefaultWait
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		wait:     wait,
		openURL:  cfg.OpenURL,
	}, nil
}

// SignIn runs one complete sign-in attempt and returns the verified
// identity. User-initiated abandonment surfaces as ErrCancelled or
// ErrDismissed so callers can route the guidance messages separately from
// backend failures.
func (p *Provider) SignIn(ctx context.Context) (*Identity, error) {
	state, err := GenerateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to generate state: %w", err)
	}

	nonce, err := GenerateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to generate nonce: %w", err)
	}

	codeVerifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to generate code verifier: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oidc.Nonce(nonce),
		oauth2.SetAuthURLParam("code_challenge", GenerateCodeChallenge(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	listener, err := newLoopbackListener(p.config.RedirectURL)
	if err != nil {
		return nil, err
	}
	defer listener.close()

	if p.openURL != nil {
		if err := p.openURL(authURL); err != nil {
			return nil, fmt.Errorf("googleauth: failed to open consent url: %w", err)
		}
	}

	result, err := listener.wait(ctx, p.wait)
	if err != nil {
		return nil, err
	}

	if result.errParam == "access_denied" {
		return nil, ErrCancelled
	}
	if result.errParam != "" {
		return nil, fmt.Errorf("googleauth: provider error: %s", result.errParam)
	}
	if result.state != state {
		return nil, ErrStateMismatch
	}

	return p.exchange(ctx, result.code, nonce, codeVerifier)
}

func (p *Provider) exchange(ctx context.Context, code, nonce, codeVerifier string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("googleauth: no id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("googleauth: failed to verify ID token: %w", err)
	}

	if idToken.Nonce != nonce {
		return nil, fmt.Errorf("googleauth: nonce mismatch")
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("googleauth: failed to parse claims: %w", err)
	}

	return &Identity{
		IDToken:     rawIDToken,
		AccessToken: token.AccessToken,
		GoogleID:    idToken.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Photo:       claims.Picture,
	}, nil
}
