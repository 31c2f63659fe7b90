package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

type fakeAPI struct {
	resp api.OrdersResponse
	err  error
}

func (f *fakeAPI) ListOrders(context.Context) (api.OrdersResponse, error) {
	return f.resp, f.err
}

func TestFetch(t *testing.T) {
	total := 23.5
	fake := &fakeAPI{resp: api.OrdersResponse{
		Success: true,
		Orders: []api.OrderDTO{
			{OrderID: 2, Items: []api.OrderItemDTO{{ProductID: 1, ProductName: "Tea", Quantity: 2, Price: 4.25}}, TotalPrice: &total, Status: "SHIPPED"},
			{OrderID: 1, Items: []api.OrderItemDTO{{ProductID: 3, ProductName: "Jam", Quantity: 1, Price: 6}}, Status: ""},
		},
	}}
	h := NewHistory(fake, logger.Nop())

	require.NoError(t, h.Fetch(context.Background()))
	list := h.Orders()
	require.Len(t, list, 2)
	assert.Equal(t, 23.5, list[0].TotalPrice)
	assert.Equal(t, domain.OrderStatusShipped, list[0].Status)
	assert.Equal(t, 6.0, list[1].TotalPrice)
	assert.Equal(t, domain.OrderStatusPending, list[1].Status)

	o, ok := h.Find(1)
	require.True(t, ok)
	assert.Equal(t, "Jam", o.Items[0].ProductName)
	_, ok = h.Find(99)
	assert.False(t, ok)
}

func TestFetch_FailureKeepsPreviousList(t *testing.T) {
	fake := &fakeAPI{resp: api.OrdersResponse{Success: true, Orders: []api.OrderDTO{{OrderID: 7}}}}
	h := NewHistory(fake, logger.Nop())
	ctx := context.Background()
	require.NoError(t, h.Fetch(ctx))

	fake.resp = api.OrdersResponse{Success: false}
	err := h.Fetch(ctx)
	require.Error(t, err)
	assert.Equal(t, api.KindBusiness, api.KindOf(err))
	assert.Equal(t, "Failed to fetch orders", api.Message(err))
	assert.Len(t, h.Orders(), 1)

	fake.err = api.NetworkError(errors.New("connection reset"))
	err = h.Fetch(ctx)
	assert.Equal(t, "An error occurred: connection reset", api.Message(err))
	assert.Len(t, h.Orders(), 1)

	h.Reset()
	assert.Empty(t, h.Orders())
}

func TestSubscribe_ReceiverCannotAlterHistory(t *testing.T) {
	fake := &fakeAPI{resp: api.OrdersResponse{
		Success: true,
		Orders: []api.OrderDTO{
			{OrderID: 7, Items: []api.OrderItemDTO{{ProductID: 1, ProductName: "Tea", Quantity: 2, Price: 4}}},
		},
	}}
	h := NewHistory(fake, logger.Nop())
	ch, cancel := h.Subscribe()
	defer cancel()
	<-ch

	require.NoError(t, h.Fetch(context.Background()))
	got := <-ch
	require.Len(t, got, 1)
	got[0].OrderID = 99
	got[0].Items[0].Quantity = 50

	o, ok := h.Find(7)
	require.True(t, ok)
	assert.Equal(t, 2, o.Items[0].Quantity)

	listed := h.Orders()
	listed[0].Items[0].Quantity = 60
	assert.Equal(t, 2, h.Orders()[0].Items[0].Quantity)
}
