package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func newTestServer(t *testing.T, cfg Config) (*Server, *api.Client) {
	t.Helper()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.Logger = logger.Nop()
	srv := NewServer(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, api.NewClient(ts.URL, api.WithLogger(logger.Nop()))
}

func login(t *testing.T, client *api.Client, email, password string) (*api.Client, api.LoginResponse) {
	t.Helper()
	resp, err := client.Login(context.Background(), api.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Message)
	return client.WithTokenSource(staticToken(resp.Token)), resp
}

func TestRegisterAndLogin(t *testing.T) {
	_, client := newTestServer(t, Config{})
	ctx := context.Background()

	reg, err := client.Register(ctx, api.RegisterRequest{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, reg.Success)

	_, err = client.Register(ctx, api.RegisterRequest{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))
	assert.Equal(t, "Email already registered", api.Message(err))

	bad, err := client.Login(ctx, api.LoginRequest{Email: "ann@example.com", Password: "nope"})
	require.NoError(t, err)
	assert.False(t, bad.Success)
	assert.Equal(t, "Invalid email or password", bad.Message)

	authed, resp := login(t, client, "ann@example.com", "secret1")
	assert.NotEmpty(t, resp.RefreshToken)

	profile, err := authed.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.FirstName)
	assert.Equal(t, "ann@example.com", profile.Email)
}

func TestRefreshRotatesToken(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	ctx := context.Background()
	_, err := srv.SeedUser("bob@example.com", "secret1", api.ProfileResponse{FirstName: "Bob", LastName: "Stone"})
	require.NoError(t, err)

	_, resp := login(t, client, "bob@example.com", "secret1")

	refreshed, err := client.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.JWTToken)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	_, err = client.Refresh(ctx, resp.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, api.KindUnauthenticated, api.KindOf(err))
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	var offset atomic.Int64
	now := func() time.Time { return time.Now().Add(time.Duration(offset.Load())) }
	srv, client := newTestServer(t, Config{AccessTTL: time.Minute, Now: now})
	_, err := srv.SeedUser("c@example.com", "secret1", api.ProfileResponse{FirstName: "C", LastName: "D"})
	require.NoError(t, err)

	authed, _ := login(t, client, "c@example.com", "secret1")
	offset.Store(int64(2 * time.Minute))

	_, err = authed.GetCart(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.KindUnauthenticated, api.KindOf(err))
	assert.Equal(t, "Unauthorized", api.Message(err))
}

func TestCartLifecycle(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	ctx := context.Background()
	_, err := srv.SeedUser("e@example.com", "secret1", api.ProfileResponse{FirstName: "Eve", LastName: "Moss", Address: "1 Main St"})
	require.NoError(t, err)
	authed, _ := login(t, client, "e@example.com", "secret1")

	_, err = authed.AddCartItem(ctx, 1, 2)
	require.NoError(t, err)
	_, err = authed.AddCartItem(ctx, 1, 1)
	require.NoError(t, err)
	_, err = authed.AddCartItem(ctx, 2, 1)
	require.NoError(t, err)

	lines, err := authed.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Classic Glazed Donut", lines[0].Name)

	_, err = authed.UpdateCartQuantity(ctx, 1, 0)
	require.NoError(t, err)
	lines, err = authed.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].ProductID)

	_, err = authed.AddCartItem(ctx, 999, 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, err.(*api.Error).StatusCode)
	assert.Equal(t, "product not found", api.Message(err))

	_, err = authed.ClearCart(ctx)
	require.NoError(t, err)
	lines, err = authed.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCheckoutCreatesOrder(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	ctx := context.Background()
	_, err := srv.SeedUser("f@example.com", "secret1", api.ProfileResponse{
		FirstName: "Finn", LastName: "Hale", Address: "9 Elm Rd", ContactNumber: "555-0100",
	})
	require.NoError(t, err)
	authed, _ := login(t, client, "f@example.com", "secret1")

	_, err = authed.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, "Cart is empty", api.Message(err))

	_, err = authed.AddCartItem(ctx, 2, 2)
	require.NoError(t, err)

	resp, err := authed.Checkout(ctx)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotNil(t, resp.OrderID)

	lines, err := authed.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)

	orders, err := authed.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	order := orders.Orders[0].ToDomain()
	assert.Equal(t, *resp.OrderID, order.OrderID)
	assert.InDelta(t, 3.25*2+DefaultShippingFee, order.TotalPrice, 1e-9)
	assert.Equal(t, "Finn Hale\n9 Elm Rd", order.ShippingAddress)
	assert.Equal(t, DefaultPaymentMethod, order.PaymentMethod)
}

func TestFailureInjection(t *testing.T) {
	srv, client := newTestServer(t, Config{})
	ctx := context.Background()

	srv.Fail(http.MethodGet, api.PathProducts, http.StatusServiceUnavailable, "maintenance")
	_, err := client.ListProducts(ctx)
	require.Error(t, err)
	assert.Equal(t, api.KindServer, api.KindOf(err))
	assert.Equal(t, "maintenance", api.Message(err))

	srv.Heal(http.MethodGet, api.PathProducts)
	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Equal(t, 2, srv.Hits(http.MethodGet, api.PathProducts))
}

func TestCheckout_ZeroShippingFee(t *testing.T) {
	free := 0.0
	srv, client := newTestServer(t, Config{ShippingFee: &free})
	ctx := context.Background()
	_, err := srv.SeedUser("z@example.com", "secret1", api.ProfileResponse{FirstName: "Zed"})
	require.NoError(t, err)
	authed, _ := login(t, client, "z@example.com", "secret1")

	_, err = authed.AddCartItem(ctx, 2, 2)
	require.NoError(t, err)
	_, err = authed.Checkout(ctx)
	require.NoError(t, err)

	orders, err := authed.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	assert.InDelta(t, 3.25*2, orders.Orders[0].ToDomain().TotalPrice, 1e-9)
}
