// Package session owns the bearer credential: reading it from the secret
// store, refreshing it, and the login, register and logout flows.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/secretstore"
)

// ErrNoCredential means no access token is stored.
var ErrNoCredential = errors.New("no stored credential")

const (
	msgLoginFailed      = "Login failed"
	msgTokenNotReceived = "Login failed: Token not received"
	msgRegisterFailed   = "Registration failed"
	msgSessionExpired   = "Session expired, please log in again"
)

// AuthAPI is the subset of the remote API used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.StatusResponse, error)
	Refresh(ctx context.Context, refreshToken string) (api.RefreshResponse, error)
}

// LoginHook runs after a successful login. Errors are logged only.
type LoginHook func(ctx context.Context) error

// LogoutHook runs whenever the session ends, by logout or failed refresh.
type LogoutHook func()

type Manager struct {
	store secretstore.Store
	auth  AuthAPI
	now   func() time.Time
	log   *slog.Logger

	refreshGroup singleflight.Group

	hooksMu     sync.Mutex
	loginHooks  []LoginHook
	logoutHooks []LogoutHook
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(store secretstore.Store, auth AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		auth:  auth,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) OnLogin(h LoginHook) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.loginHooks = append(m.loginHooks, h)
}

func (m *Manager) OnLogout(h LogoutHook) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.logoutHooks = append(m.logoutHooks, h)
}

// Current returns the stored credential without touching the network. The
// credential may be expired.
func (m *Manager) Current(ctx context.Context) (domain.Credential, error) {
	tokens, err := m.store.Load(ctx)
	if errors.Is(err, secretstore.ErrNotFound) {
		return domain.Credential{}, ErrNoCredential
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}
	return domain.Credential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       decodeExpiry(tokens.AccessToken),
	}, nil
}

// Credential returns a usable credential, refreshing once if the stored one
// has expired.
func (m *Manager) Credential(ctx context.Context) (domain.Credential, error) {
	cred, _, err := m.credential(ctx)
	return cred, err
}

func (m *Manager) credential(ctx context.Context) (domain.Credential, bool, error) {
	cred, err := m.Current(ctx)
	if errors.Is(err, ErrNoCredential) {
		return domain.Credential{}, false, api.Unauthenticated("", err)
	}
	if err != nil {
		return domain.Credential{}, false, err
	}
	if !cred.Expired(m.now()) {
		return cred, false, nil
	}
	m.log.DebugContext(ctx, "access token expired, refreshing")
	cred, err = m.Refresh(ctx)
	return cred, err == nil, err
}

// Token implements api.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, error) {
	token, _, err := m.AcquireToken(ctx)
	return token, err
}

// AcquireToken implements api.Renewer.
func (m *Manager) AcquireToken(ctx context.Context) (string, bool, error) {
	cred, refreshed, err := m.credential(ctx)
	if err != nil {
		return "", false, err
	}
	return cred.AccessToken, refreshed, nil
}

// Renew implements api.Renewer: the server rejected the current token.
func (m *Manager) Renew(ctx context.Context) (string, error) {
	cred, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one request. Any failure ends the session.
func (m *Manager) Refresh(ctx context.Context) (domain.Credential, error) {
	v, err, shared := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if shared {
		m.log.DebugContext(ctx, "joined in-flight token refresh")
	}
	if err != nil {
		return domain.Credential{}, err
	}
	return v.(domain.Credential), nil
}

func (m *Manager) refresh(ctx context.Context) (domain.Credential, error) {
	current, err := m.Current(ctx)
	if err != nil {
		return domain.Credential{}, m.endSession(ctx, err)
	}
	if current.RefreshToken == "" {
		return domain.Credential{}, m.endSession(ctx, errors.New("no refresh token stored"))
	}

	resp, err := m.auth.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return domain.Credential{}, m.endSession(ctx, err)
	}
	if resp.JWTToken == "" || resp.RefreshToken == "" {
		return domain.Credential{}, m.endSession(ctx, errors.New("refresh response missing tokens"))
	}

	tokens := secretstore.Tokens{AccessToken: resp.JWTToken, RefreshToken: resp.RefreshToken}
	if err := m.store.Save(ctx, tokens); err != nil {
		return domain.Credential{}, m.endSession(ctx, fmt.Errorf("failed to save refreshed credential: %w", err))
	}

	m.log.InfoContext(ctx, "access token refreshed")
	return domain.Credential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       decodeExpiry(tokens.AccessToken),
	}, nil
}

// endSession clears the stored credential after a failed refresh.
func (m *Manager) endSession(ctx context.Context, cause error) error {
	m.log.WarnContext(ctx, "token refresh failed, ending session", slog.Any("error", cause))
	if err := m.store.Clear(ctx); err != nil {
		m.log.ErrorContext(ctx, "failed to clear credential", slog.Any("error", err))
	}
	m.runLogoutHooks()
	return api.Unauthenticated(msgSessionExpired, cause)
}

// Login authenticates and stores the returned tokens. Server messages are
// returned verbatim.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := validateLogin(email, password); err != nil {
		return err
	}

	resp, err := m.auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if !resp.Success {
		return api.BusinessError(resp.Message, msgLoginFailed)
	}
	if resp.Token == "" {
		return api.BusinessError(msgTokenNotReceived, "")
	}

	if err := m.store.Save(ctx, secretstore.Tokens{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	m.log.InfoContext(ctx, "logged in", slog.String("email", email))

	m.hooksMu.Lock()
	hooks := append([]LoginHook(nil), m.loginHooks...)
	m.hooksMu.Unlock()
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			m.log.WarnContext(ctx, "post-login hook failed", slog.Any("error", err))
		}
	}
	return nil
}

// Register creates the account and then logs in with the same credentials.
func (m *Manager) Register(ctx context.Context, in RegisterInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	resp, err := m.auth.Register(ctx, api.RegisterRequest{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	})
	if err != nil {
		return err
	}
	if err := resp.Err(msgRegisterFailed); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "registered", slog.String("email", in.Email))

	return m.Login(ctx, in.Email, in.Password)
}

// Logout clears the credential and resets dependent state. Calling it with
// no session is a no-op apart from the hooks.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	m.runLogoutHooks()
	m.log.InfoContext(ctx, "logged out")
	return nil
}

// Authenticated reports whether a credential is stored. It does not check
// expiry.
func (m *Manager) Authenticated(ctx context.Context) bool {
	_, err := m.Current(ctx)
	return err == nil
}

func (m *Manager) runLogoutHooks() {
	m.hooksMu.Lock()
	hooks := append([]LogoutHook(nil), m.logoutHooks...)
	m.hooksMu.Unlock()
	for _, h := range hooks {
		h()
	}
}
