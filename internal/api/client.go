// Package api is the typed REST client for the storefront backend. Failures
// come back as *Error values tagged with a Kind.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// TokenSource hands out a bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Renewer is implemented by token sources that can replace a token the
// server rejected with 401.
type Renewer interface {
	TokenSource
	// AcquireToken is Token, also reporting whether the session was refreshed
	// to produce the token. A token that was just refreshed is not renewed
	// again on 401.
	AcquireToken(ctx context.Context) (token string, refreshed bool, err error)
	Renew(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Auth

func (c *Client) Register(ctx context.Context, req RegisterRequest) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodPost, PathRegister, false, req, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, PathLogin, false, req, &resp)
	return resp, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	var resp RefreshResponse
	err := c.do(ctx, http.MethodPost, PathRefresh, false, RefreshRequest{RefreshToken: refreshToken}, &resp)
	return resp, err
}

// Profile

func (c *Client) GetProfile(ctx context.Context) (domain.UserProfile, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodGet, PathProfile, true, nil, &resp); err != nil {
		return domain.UserProfile{}, err
	}
	return resp.ToDomain(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileRequest) (domain.UserProfile, error) {
	var resp ProfileResponse
	if err := c.do(ctx, http.MethodPost, PathProfile, true, req, &resp); err != nil {
		return domain.UserProfile{}, err
	}
	return resp.ToDomain(), nil
}

func (c *Client) UpdateUserInfo(ctx context.Context, req UserInfoRequest) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodPost, PathUpdateUserInfo, true, req, &resp)
	return resp, err
}

// Catalog

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp ProductsResponse
	if err := c.do(ctx, http.MethodGet, PathProducts, false, nil, &resp); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, p.ToDomain())
	}
	return products, nil
}

// Cart

// GetCart returns the server cart as sent, including lines with a zero
// quantity.
func (c *Client) GetCart(ctx context.Context) ([]domain.CartLine, error) {
	var resp CartItemsResponse
	if err := c.do(ctx, http.MethodGet, PathCart, true, nil, &resp); err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(resp.CartItems))
	for _, it := range resp.CartItems {
		lines = append(lines, it.ToDomain())
	}
	return lines, nil
}

func (c *Client) AddCartItem(ctx context.Context, productID int64, quantity int) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodPost, PathCartAdd, true, CartItemRequest{ProductID: productID, Quantity: quantity}, &resp)
	return resp, err
}

func (c *Client) UpdateCartQuantity(ctx context.Context, productID int64, quantity int) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodPost, PathCartUpdate, true, CartItemRequest{ProductID: productID, Quantity: quantity}, &resp)
	return resp, err
}

func (c *Client) ClearCart(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodDelete, PathCartClear, true, nil, &resp)
	return resp, err
}

func (c *Client) Checkout(ctx context.Context) (CheckoutResponse, error) {
	var resp CheckoutResponse
	err := c.do(ctx, http.MethodPost, PathCheckout, true, nil, &resp)
	return resp, err
}

// Orders

func (c *Client) ListOrders(ctx context.Context) (OrdersResponse, error) {
	var resp OrdersResponse
	err := c.do(ctx, http.MethodGet, PathOrders, true, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
	}

	var (
		token     string
		refreshed bool
	)
	if auth {
		var err error
		if token, refreshed, err = c.bearer(ctx); err != nil {
			return err
		}
	}

	status, raw, err := c.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}

	// A rejected token gets one renewal and one retry, unless it was itself
	// the product of a refresh.
	if auth && status == http.StatusUnauthorized && !refreshed {
		if r, ok := c.tokens.(Renewer); ok {
			c.log.DebugContext(ctx, "token rejected, renewing", slog.String("path", path))
			if token, err = r.Renew(ctx); err != nil {
				return err
			}
			if status, raw, err = c.send(ctx, method, path, token, payload); err != nil {
				return err
			}
		}
	}

	if status < 200 || status > 299 {
		return ServerError(status, raw)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Error{Kind: KindBusiness, StatusCode: status, Message: "Empty response from server"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:       KindBusiness,
			StatusCode: status,
			Message:    "Failed to parse server response",
			Err:        err,
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return 0, nil, NetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, NetworkError(err)
	}

	c.log.DebugContext(ctx, "request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))
	return resp.StatusCode, raw, nil
}

func (c *Client) bearer(ctx context.Context) (string, bool, error) {
	if c.tokens == nil {
		return "", false, Unauthenticated("", nil)
	}

	var (
		token     string
		refreshed bool
		err       error
	)
	if r, ok := c.tokens.(Renewer); ok {
		token, refreshed, err = r.AcquireToken(ctx)
	} else {
		token, err = c.tokens.Token(ctx)
	}
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return "", false, err
		}
		return "", false, Unauthenticated("", err)
	}
	if token == "" {
		return "", false, Unauthenticated("", nil)
	}
	return token, refreshed, nil
}
