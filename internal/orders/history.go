// Package orders reads the signed-in user's order history.
package orders

import (
	"context"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/state"
)

const msgFetchFailed = "Failed to fetch orders"

type API interface {
	ListOrders(ctx context.Context) (api.OrdersResponse, error)
}

// History is read-only: orders are only ever replaced by a fresh fetch.
type History struct {
	api    API
	orders *state.Value[[]domain.Order]
	log    *slog.Logger
}

func NewHistory(client API, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	return &History{
		api:    client,
		orders: state.NewValue([]domain.Order{}, state.WithClone(domain.CloneOrders)),
		log:    log.With(slog.String("component", "orders")),
	}
}

// Fetch replaces the list. On failure the previous list stays.
func (h *History) Fetch(ctx context.Context) error {
	resp, err := h.api.ListOrders(ctx)
	if err != nil {
		h.log.WarnContext(ctx, "failed to fetch orders", slog.Any("error", err))
		return err
	}
	if !resp.Success {
		return api.BusinessError(resp.Message, msgFetchFailed)
	}

	list := make([]domain.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		list = append(list, o.ToDomain())
	}
	h.orders.Set(list)
	return nil
}

func (h *History) Orders() []domain.Order {
	return domain.CloneOrders(h.orders.Get())
}

// Find returns the order with id from the last fetch.
func (h *History) Find(id int64) (domain.Order, bool) {
	for _, o := range h.orders.Get() {
		if o.OrderID == id {
			o.Items = append([]domain.OrderItem{}, o.Items...)
			return o, true
		}
	}
	return domain.Order{}, false
}

func (h *History) Subscribe() (<-chan []domain.Order, func()) {
	return h.orders.Subscribe()
}

func (h *History) Reset() {
	h.orders.Set([]domain.Order{})
}
