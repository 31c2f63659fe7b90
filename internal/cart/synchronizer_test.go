package cart

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func setup(t *testing.T) (*backend.Server, *api.Client, *Synchronizer) {
	t.Helper()
	srv := backend.NewServer(backend.Config{
		BcryptCost: bcrypt.MinCost,
		Logger:     logger.Nop(),
		Products: []api.ProductDTO{
			{ID: 1, Name: "Apple", Price: 10.0},
			{ID: 2, Name: "Bread", Price: 2.5},
			{ID: 5, Name: "Cheese", Price: 7.25},
		},
	})
	_, err := srv.SeedUser("u@example.com", "secret1", api.ProfileResponse{FirstName: "U", LastName: "V"})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL, api.WithLogger(logger.Nop()))
	resp, err := client.Login(context.Background(), api.LoginRequest{Email: "u@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.True(t, resp.Success)

	authed := client.WithTokenSource(staticToken(resp.Token))
	return srv, authed, NewSynchronizer(authed, logger.Nop())
}

func TestAdd_ReconcilesWithServer(t *testing.T) {
	_, client, cart := setup(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 1, 2))
	require.NoError(t, cart.Add(ctx, 2, 1))
	require.NoError(t, cart.Add(ctx, 1, 1))

	server, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, server, cart.Lines())
	assert.Equal(t, 4, cart.Count())
	assert.InDelta(t, 3*10.0+2.5, cart.TotalPrice(), 1e-9)
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	srv, _, cart := setup(t)

	err := cart.Add(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Zero(t, srv.Hits(http.MethodPost, api.PathCartAdd))
}

func TestSetQuantityZero_RemovesLine(t *testing.T) {
	_, _, cart := setup(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, 1, 2))
	require.Len(t, cart.Lines(), 1)
	assert.InDelta(t, 20.0, cart.TotalPrice(), 1e-9)

	require.NoError(t, cart.SetQuantity(ctx, 1, 0))
	assert.Empty(t, cart.Lines())
	assert.Equal(t, 0.0, cart.TotalPrice())
	_, found := domain.FindLine(cart.Lines(), 1)
	assert.False(t, found)
}

func TestIncrementDecrementRemove(t *testing.T) {
	srv, _, cart := setup(t)
	ctx := context.Background()

	require.NoError(t, cart.Increment(ctx, 5))
	require.NoError(t, cart.Increment(ctx, 5))
	line, ok := domain.FindLine(cart.Lines(), 5)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)

	require.NoError(t, cart.Decrement(ctx, 5))
	line, _ = domain.FindLine(cart.Lines(), 5)
	assert.Equal(t, 1, line.Quantity)

	require.NoError(t, cart.Decrement(ctx, 5))
	assert.Empty(t, cart.Lines())

	updates := srv.Hits(http.MethodPost, api.PathCartUpdate)
	require.NoError(t, cart.Decrement(ctx, 5))
	assert.Equal(t, updates+1, srv.Hits(http.MethodPost, api.PathCartUpdate))
	assert.Empty(t, cart.Lines())

	require.NoError(t, cart.Add(ctx, 2, 3))
	require.NoError(t, cart.Remove(ctx, 2))
	assert.Empty(t, cart.Lines())
}

func TestDecrement_StaleLocalCartStillRemovesServerLine(t *testing.T) {
	srv, client, cart := setup(t)
	ctx := context.Background()

	// added elsewhere; the synchronizer has not fetched yet
	resp, err := client.AddCartItem(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.True(t, cart.Empty())

	require.NoError(t, cart.Decrement(ctx, 1))
	assert.Equal(t, 1, srv.Hits(http.MethodPost, api.PathCartUpdate))

	server, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, server)
	assert.Empty(t, cart.Lines())
}

func TestAdd_ServerErrorLeavesCartUnchanged(t *testing.T) {
	srv, _, cart := setup(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 1, 2))
	before := cart.Lines()

	srv.Fail(http.MethodPost, api.PathCartAdd, http.StatusInternalServerError, "inventory offline")
	err := cart.Add(ctx, 5, 3)
	require.Error(t, err)
	assert.Equal(t, "inventory offline", api.Message(err))
	assert.Equal(t, before, cart.Lines())

	srv.Fail(http.MethodPost, api.PathCartAdd, http.StatusInternalServerError, "")
	err = cart.Add(ctx, 5, 3)
	assert.Equal(t, api.GenericErrorMessage, api.Message(err))
	assert.Equal(t, before, cart.Lines())
}

func TestMutation_BusinessFailureLeavesCartUnchanged(t *testing.T) {
	srv, _, cart := setup(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 2, 1))
	before := cart.Lines()

	srv.Fail(http.MethodPost, api.PathCartUpdate, http.StatusOK, `{"success":false}`)
	err := cart.SetQuantity(ctx, 2, 4)
	require.Error(t, err)
	assert.Equal(t, api.KindBusiness, api.KindOf(err))
	assert.Equal(t, "Failed to update cart", api.Message(err))
	assert.Equal(t, before, cart.Lines())
}

func TestMutation_FollowUpFetchFailureKeepsPreviousLines(t *testing.T) {
	srv, client, cart := setup(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 1, 1))
	before := cart.Lines()

	srv.Fail(http.MethodGet, api.PathCart, http.StatusServiceUnavailable, "read replica down")
	err := cart.Add(ctx, 2, 1)
	require.Error(t, err)
	assert.Equal(t, "read replica down", api.Message(err))
	assert.Equal(t, before, cart.Lines())

	srv.Heal(http.MethodGet, api.PathCart)
	require.NoError(t, cart.Fetch(ctx))
	server, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, server, cart.Lines())
	assert.Len(t, server, 2)
}

func TestFetch_DropsNonPositiveLines(t *testing.T) {
	srv, _, cart := setup(t)
	srv.Fail(http.MethodGet, api.PathCart, http.StatusOK,
		`{"cartItems":[{"productId":1,"name":"Apple","price":10,"quantity":0},{"productId":2,"name":"Bread","price":2.5,"quantity":2}]}`)

	require.NoError(t, cart.Fetch(context.Background()))
	require.Len(t, cart.Lines(), 1)
	assert.Equal(t, int64(2), cart.Lines()[0].ProductID)
	assert.InDelta(t, 5.0, cart.TotalPrice(), 1e-9)
}

func TestClear(t *testing.T) {
	srv, _, cart := setup(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 1, 1))

	srv.Fail(http.MethodDelete, api.PathCartClear, http.StatusOK, `{"success":false,"message":"locked"}`)
	err := cart.Clear(ctx)
	assert.Equal(t, "locked", api.Message(err))
	assert.Len(t, cart.Lines(), 1)

	srv.Heal(http.MethodDelete, api.PathCartClear)
	require.NoError(t, cart.Clear(ctx))
	assert.True(t, cart.Empty())
}

func TestCheckout(t *testing.T) {
	srv, client, cart := setup(t)
	ctx := context.Background()
	require.NoError(t, cart.Add(ctx, 1, 2))
	before := cart.Lines()

	srv.Fail(http.MethodPost, api.PathCheckout, http.StatusConflict, `{"success":false,"message":"out of stock"}`)
	_, err := cart.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, "out of stock", api.Message(err))
	assert.Equal(t, before, cart.Lines())

	srv.Fail(http.MethodPost, api.PathCheckout, http.StatusOK, `{"success":true}`)
	_, err = cart.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, api.KindBusiness, api.KindOf(err))
	assert.Equal(t, before, cart.Lines())

	srv.Heal(http.MethodPost, api.PathCheckout)
	orderID, err := cart.Checkout(ctx)
	require.NoError(t, err)
	assert.NotZero(t, orderID)
	assert.True(t, cart.Empty())
	assert.Zero(t, cart.TotalPrice())

	server, err := client.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, server)
}

func TestSubscribe_ReceivesLatestLines(t *testing.T) {
	_, _, cart := setup(t)
	ch, cancel := cart.Subscribe()
	defer cancel()

	assert.Empty(t, <-ch)

	require.NoError(t, cart.Add(context.Background(), 2, 2))
	select {
	case lines := <-ch:
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Quantity)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	cart.Reset()
	assert.Empty(t, <-ch)
}

func TestSubscribe_ReceiverCannotAlterCart(t *testing.T) {
	_, _, cart := setup(t)
	ch, cancel := cart.Subscribe()
	defer cancel()
	<-ch

	require.NoError(t, cart.Add(context.Background(), 1, 2))
	var lines []domain.CartLine
	select {
	case lines = <-ch:
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
	require.Len(t, lines, 1)

	lines[0].Quantity = 100
	lines[0].UnitPrice = 99

	assert.InDelta(t, 20.0, cart.TotalPrice(), 1e-9)
	assert.Equal(t, 2, cart.Lines()[0].Quantity)
}

// Random sequences of successful mutations always end in the server's list.
func TestRandomMutations_NeverDiverge(t *testing.T) {
	_, client, cart := setup(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []int64{1, 2, 5}

	for i := 0; i < 40; i++ {
		id := products[rng.Intn(len(products))]
		switch rng.Intn(4) {
		case 0:
			require.NoError(t, cart.Add(ctx, id, 1+rng.Intn(3)))
		case 1:
			require.NoError(t, cart.SetQuantity(ctx, id, rng.Intn(4)))
		case 2:
			require.NoError(t, cart.Increment(ctx, id))
		case 3:
			require.NoError(t, cart.Decrement(ctx, id))
		}

		server, err := client.GetCart(ctx)
		require.NoError(t, err)
		assert.Equal(t, server, cart.Lines())
		assert.InDelta(t, domain.TotalPrice(server), cart.TotalPrice(), 1e-9)
	}
}
