package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fsonnyboy/medcare/pkg/logger"
	"github.com/fsonnyboy/medcare/pkg/session"
	"github.com/fsonnyboy/medcare/pkg/transport"
)

var (
	// ErrNotAuthenticated is returned by operations that need a live session.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
	// ErrStillLoading is returned when the persisted session has not been
	// restored yet. Callers must gate on Loading() before issuing
	// authenticated requests.
	ErrStillLoading = errors.New("auth: session restore in progress")
)

// LoginStatus tags a login/signup outcome. These flows never return an
// error to the caller; failures surface in the result message.
type LoginStatus string

const (
	LoginSuccess LoginStatus = "success"
	LoginError   LoginStatus = "error"
)

// LoginResult is the tagged outcome of an authentication attempt.
type LoginResult struct {
	Status  LoginStatus
	Message string

	// Pending is set when the account exists but is still awaiting
	// approval, so no session was established.
	Pending bool
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signinResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        *User  `json:"user"`
}

// UserDataResponse is the profile endpoint payload.
type UserDataResponse struct {
	Profile    *User          `json:"profile"`
	Statistics UserStatistics `json:"statistics"`
}

type UserStatistics struct {
	CartItems     int `json:"cartItems"`
	TotalRequests int `json:"totalRequests"`
}

// GoogleAuthenticator is the external sign-in collaborator. It yields the
// provider identity that the backend exchange consumes.
type GoogleAuthenticator interface {
	SignIn(ctx context.Context) (idToken, accessToken string, profile GoogleProfile, err error)
}

type GoogleProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
}

// Config wires a Manager.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Store   *session.Store
	Google  GoogleAuthenticator
	Logger  logger.Logger

	// OnLogout runs after every session teardown, the navigation-redirect
	// analogue. Optional.
	OnLogout func()

	Registerer prometheus.Registerer

	// HTTPClient overrides the transport's client, mainly for tests.
	HTTPClient *http.Client
}

// Manager owns Session and AuthUser. It is the single writer of both; every
// mutation funnels through Login/Logout/RefreshUserData and their OAuth
// counterparts, and the cached user is always replaced wholesale.
type Manager struct {
	cfg   Config
	store *session.Store
	log   logger.Logger

	mu      sync.RWMutex
	loading bool
	sess    *session.Session
	user    *User
	client  *transport.Client

	// gen increments on every identity change (login, logout). Async
	// completions compare their captured value before committing, so a
	// stale fetch can never clobber newer state.
	gen uint64

	subscribers []func(*User)
}

func NewManager(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop{}
	}

	m := &Manager{
		cfg:     cfg,
		store:   cfg.Store,
		log:     log,
		loading: true,
	}
	m.client = m.buildClient("")
	return m
}

// buildClient constructs a transport for one token. A fresh client is built
// on every token change; headers are never mutated on a live instance.
func (m *Manager) buildClient(token string) *transport.Client {
	var onUnauthorized func()
	if token != "" {
		onUnauthorized = m.forceLogout
	}
	return transport.New(transport.Config{
		BaseURL:        m.cfg.BaseURL,
		Token:          token,
		Timeout:        m.cfg.Timeout,
		OnUnauthorized: onUnauthorized,
		Logger:         m.log,
		Registerer:     m.cfg.Registerer,
		HTTPClient:     m.cfg.HTTPClient,
	})
}

// Load restores the persisted session and cached profile. It runs once at
// boot; until it finishes, Loading() reports true and authenticated
// operations refuse to run.
func (m *Manager) Load(ctx context.Context) {
	sess := m.store.Load(ctx)
	user := decodeUser(m.store.LoadUser(ctx))

	m.mu.Lock()
	m.sess = sess
	m.user = user
	if sess != nil {
		m.client = m.buildClient(sess.Token)
	}
	m.loading = false
	m.mu.Unlock()

	if sess != nil {
		m.log.Info("session restored", logger.Field{Key: "userId", Value: sess.UserID})
	}
	m.notify(user)
}

// Loading reports whether the initial restore is still in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Session returns the current session, or nil.
func (m *Manager) Session() *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil
	}
	copied := *m.sess
	return &copied
}

// Authenticated reports whether a session is live. A cached pending
// profile without a session reports false.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess != nil
}

// CurrentUser returns the cached profile, or nil. The returned value is
// never mutated in place, so it is safe to hold.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Client returns the transport bound to the current token. Unauthenticated
// callers get a tokenless client.
func (m *Manager) Client() *transport.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// OnUserChange registers a subscriber invoked after every wholesale user
// replacement, including the nil replacement on logout.
func (m *Manager) OnUserChange(fn func(*User)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

func (m *Manager) notify(user *User) {
	m.mu.RLock()
	subs := make([]func(*User), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(user)
	}
}

// Login authenticates with username/password. It never returns an error;
// the outcome is a tagged result so the caller has a branch-free success
// path.
func (m *Manager) Login(ctx context.Context, creds Credentials) LoginResult {
	var resp signinResponse
	if err := m.anonymousClient().Post(ctx, "/auth/signin", creds, &resp); err != nil {
		return LoginResult{Status: LoginError, Message: loginErrorMessage(err)}
	}

	if resp.AccessToken == "" || resp.User == nil || resp.User.ID == 0 {
		m.log.Error("signin returned malformed payload")
		return LoginResult{Status: LoginError, Message: "Authentication failed. Please try again."}
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

// anonymousClient issues the pre-auth calls (signin, register, google
// exchange) without a bearer token and without the 401 teardown hook.
func (m *Manager) anonymousClient() *transport.Client {
	return m.buildClient("")
}

// establish commits a fresh session+user pair and persists both.
func (m *Manager) establish(ctx context.Context, sess *session.Session, user *User) {
	m.mu.Lock()
	m.gen++
	m.sess = sess
	m.user = user
	m.client = m.buildClient(sess.Token)
	m.mu.Unlock()

	if err := m.store.Save(ctx, sess); err != nil {
		m.log.Error("failed to persist session", logger.Field{Key: "error", Value: err.Error()})
	}
	if data, err := encodeUser(user); err == nil {
		if err := m.store.SaveUser(ctx, data); err != nil {
			m.log.Error("failed to persist user", logger.Field{Key: "error", Value: err.Error()})
		}
	}

	m.notify(user)
}

// Logout tears down the session. It is idempotent: concurrent 401s and an
// explicit user logout collapse into a single state transition.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.sess == nil && m.user == nil {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.sess = nil
	m.user = nil
	m.client = m.buildClient("")
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Error("failed to clear persisted state", logger.Field{Key: "error", Value: err.Error()})
	}

	m.log.Info("logged out")
	m.notify(nil)

	if m.cfg.OnLogout != nil {
		m.cfg.OnLogout()
	}
}

// forceLogout is the transport's 401 hook. It runs synchronously relative
// to the failing request's rejection.
func (m *Manager) forceLogout() {
	m.log.Warn("session rejected by backend, forcing logout")
	m.Logout(context.Background())
}

// RefreshUserData re-fetches the full profile and replaces the cached user
// wholesale. Safe to call on a timer; a logout racing the fetch wins and
// the stale profile is discarded.
func (m *Manager) RefreshUserData(ctx context.Context) error {
	m.mu.RLock()
	if m.loading {
		m.mu.RUnlock()
		return ErrStillLoading
	}
	sess := m.sess
	client := m.client
	gen := m.gen
	m.mu.RUnlock()

	if sess == nil {
		return ErrNotAuthenticated
	}

	query := url.Values{}
	query.Set("userId", sess.UserID)

	var resp UserDataResponse
	if err := client.Get(ctx, "/profile/get-profile", query, &resp); err != nil {
		return fmt.Errorf("auth: failed to refresh user data: %w", err)
	}
	if resp.Profile == nil || resp.Profile.ID == 0 {
		return fmt.Errorf("auth: profile endpoint returned no user")
	}

	m.mu.Lock()
	if m.gen != gen {
		// Identity changed while the fetch was in flight.
		m.mu.Unlock()
		return nil
	}
	m.user = resp.Profile
	m.mu.Unlock()

	if data, err := encodeUser(resp.Profile); err == nil {
		if err := m.store.SaveUser(ctx, data); err != nil {
			m.log.Error("failed to persist refreshed user", logger.Field{Key: "error", Value: err.Error()})
		}
	}

	m.notify(resp.Profile)
	return nil
}

// loginErrorMessage maps transport failures onto the inline message shown
// by the sign-in form.
func loginErrorMessage(err error) string {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Authentication failed. Please try again."
}
