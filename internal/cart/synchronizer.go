// Package cart keeps the local cart in step with the server cart. Every
// mutation is sent to the server first and the local lines are replaced by a
// fresh server read afterwards, so the server is always authoritative.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/state"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

const (
	msgAddFailed      = "Failed to add item to cart"
	msgUpdateFailed   = "Failed to update cart"
	msgClearFailed    = "Failed to clear cart"
	msgCheckoutFailed = "Checkout failed"
	msgNoOrderID      = "Checkout failed: Order ID not received"
)

// API is the part of the remote API the synchronizer drives.
type API interface {
	GetCart(ctx context.Context) ([]domain.CartLine, error)
	AddCartItem(ctx context.Context, productID int64, quantity int) (api.StatusResponse, error)
	UpdateCartQuantity(ctx context.Context, productID int64, quantity int) (api.StatusResponse, error)
	ClearCart(ctx context.Context) (api.StatusResponse, error)
	Checkout(ctx context.Context) (api.CheckoutResponse, error)
}

type Synchronizer struct {
	api   API
	lines *state.Value[[]domain.CartLine]
	log   *slog.Logger
}

func NewSynchronizer(client API, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{
		api:   client,
		lines: state.NewValue([]domain.CartLine{}, state.WithClone(domain.CloneLines)),
		log:   log.With(slog.String("component", "cart")),
	}
}

// Fetch replaces the local lines with the server cart. Lines with a
// non-positive quantity are dropped.
func (s *Synchronizer) Fetch(ctx context.Context) error {
	remote, err := s.api.GetCart(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "failed to fetch cart", slog.Any("error", err))
		return err
	}

	lines := make([]domain.CartLine, 0, len(remote))
	for _, l := range remote {
		if l.Quantity > 0 {
			lines = append(lines, l)
		}
	}
	s.lines.Set(lines)
	s.log.DebugContext(ctx, "cart fetched", slog.Int("lines", len(lines)))
	return nil
}

// Add adds quantity units of productID on top of what the cart holds.
func (s *Synchronizer) Add(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: add requires at least 1, got %d", ErrInvalidQuantity, quantity)
	}

	resp, err := s.api.AddCartItem(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if err := resp.Err(msgAddFailed); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

// SetQuantity sets the absolute quantity for productID; zero removes the line.
func (s *Synchronizer) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", ErrInvalidQuantity, quantity)
	}

	resp, err := s.api.UpdateCartQuantity(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if err := resp.Err(msgUpdateFailed); err != nil {
		return err
	}
	return s.Fetch(ctx)
}

func (s *Synchronizer) Increment(ctx context.Context, productID int64) error {
	return s.SetQuantity(ctx, productID, s.quantity(productID)+1)
}

// Decrement lowers the quantity by one. Going below 1 removes the line. A
// product missing from the local cart is still sent as quantity 0, since the
// local list may be stale.
func (s *Synchronizer) Decrement(ctx context.Context, productID int64) error {
	return s.SetQuantity(ctx, productID, max(s.quantity(productID)-1, 0))
}

func (s *Synchronizer) Remove(ctx context.Context, productID int64) error {
	return s.SetQuantity(ctx, productID, 0)
}

func (s *Synchronizer) Clear(ctx context.Context) error {
	resp, err := s.api.ClearCart(ctx)
	if err != nil {
		return err
	}
	if err := resp.Err(msgClearFailed); err != nil {
		return err
	}
	s.lines.Set([]domain.CartLine{})
	return nil
}

// Checkout submits the server cart as an order and returns its id. The local
// cart is emptied only on success.
func (s *Synchronizer) Checkout(ctx context.Context) (int64, error) {
	resp, err := s.api.Checkout(ctx)
	if err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, api.BusinessError(resp.Message, msgCheckoutFailed)
	}
	if resp.OrderID == nil || *resp.OrderID == 0 {
		return 0, api.BusinessError(msgNoOrderID, "")
	}

	s.lines.Set([]domain.CartLine{})
	s.log.InfoContext(ctx, "order placed", slog.Int64("order_id", *resp.OrderID))
	return *resp.OrderID, nil
}

// Lines returns a snapshot the caller may modify.
func (s *Synchronizer) Lines() []domain.CartLine {
	return domain.CloneLines(s.lines.Get())
}

// TotalPrice is recomputed from the current lines on every call.
func (s *Synchronizer) TotalPrice() float64 {
	return domain.TotalPrice(s.lines.Get())
}

// Count is the number of units across all lines.
func (s *Synchronizer) Count() int {
	n := 0
	for _, l := range s.lines.Get() {
		n += l.Quantity
	}
	return n
}

func (s *Synchronizer) Empty() bool {
	return len(s.lines.Get()) == 0
}

// Subscribe yields the latest lines after every change.
func (s *Synchronizer) Subscribe() (<-chan []domain.CartLine, func()) {
	return s.lines.Subscribe()
}

// Reset empties the local cart without contacting the server.
func (s *Synchronizer) Reset() {
	s.lines.Set([]domain.CartLine{})
}

func (s *Synchronizer) quantity(productID int64) int {
	l, ok := domain.FindLine(s.lines.Get(), productID)
	if !ok {
		return 0
	}
	return l.Quantity
}
