// Package checkout builds the checkout summary and drives order placement.
package checkout

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/state"
)

const (
	DefaultShippingFee   = 15.0
	DefaultPaymentMethod = "Cash On Delivery"
)

var ErrEmptyCart = errors.New("cart is empty")

type Cart interface {
	Fetch(ctx context.Context) error
	Lines() []domain.CartLine
	Empty() bool
	Checkout(ctx context.Context) (int64, error)
}

type Profile interface {
	Fetch(ctx context.Context) error
	Profile() domain.UserProfile
}

type PhaseKind int

const (
	PhaseShopping PhaseKind = iota
	PhaseConfirmed
)

func (k PhaseKind) String() string {
	if k == PhaseConfirmed {
		return "confirmed"
	}
	return "shopping"
}

// Phase is the order flow state. OrderID is set only when confirmed.
type Phase struct {
	Kind    PhaseKind
	OrderID int64
}

type Config struct {
	// ShippingFee is added to every order. Nil means DefaultShippingFee; a
	// pointer to zero means free shipping.
	ShippingFee   *float64
	PaymentMethod string
}

type Coordinator struct {
	cart    Cart
	profile Profile
	fee     float64
	payment string
	phase   *state.Value[Phase]
	log     *slog.Logger
}

// NewCoordinator fills unset Config fields with the defaults.
func NewCoordinator(cart Cart, profile Profile, cfg Config, log *slog.Logger) *Coordinator {
	fee := DefaultShippingFee
	if cfg.ShippingFee != nil {
		fee = *cfg.ShippingFee
	}
	payment := cfg.PaymentMethod
	if payment == "" {
		payment = DefaultPaymentMethod
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		cart:    cart,
		profile: profile,
		fee:     fee,
		payment: payment,
		phase:   state.NewValue(Phase{Kind: PhaseShopping}),
		log:     log.With(slog.String("component", "checkout")),
	}
}

// Summary projects the current cart and profile. It sends no requests.
func (c *Coordinator) Summary() domain.CheckoutSummary {
	return domain.NewCheckoutSummary(c.cart.Lines(), c.profile.Profile(), c.fee, c.payment)
}

// Prepare refreshes cart and profile concurrently and returns the summary.
// The summary reflects whatever state is current even when a refresh fails.
func (c *Coordinator) Prepare(ctx context.Context) (domain.CheckoutSummary, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.cart.Fetch(gctx) })
	g.Go(func() error { return c.profile.Fetch(gctx) })
	err := g.Wait()
	return c.Summary(), err
}

// PlaceOrder checks the cart out. On failure the phase and cart are left as
// they were.
func (c *Coordinator) PlaceOrder(ctx context.Context) (int64, error) {
	if c.cart.Empty() {
		return 0, ErrEmptyCart
	}

	orderID, err := c.cart.Checkout(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "place order failed", slog.Any("error", err))
		return 0, err
	}

	c.phase.Set(Phase{Kind: PhaseConfirmed, OrderID: orderID})
	c.log.InfoContext(ctx, "order confirmed", slog.Int64("order_id", orderID))
	return orderID, nil
}

func (c *Coordinator) Phase() Phase {
	return c.phase.Get()
}

func (c *Coordinator) SubscribePhase() (<-chan Phase, func()) {
	return c.phase.Subscribe()
}

// Acknowledge returns from the confirmation back to shopping.
func (c *Coordinator) Acknowledge() {
	c.phase.Set(Phase{Kind: PhaseShopping})
}
