// Package app wires the storefront client together from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/profile"
	"github.com/fjod/go_cart/storefront/internal/secretstore"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

type App struct {
	Log      *slog.Logger
	Client   *api.Client
	Session  *session.Manager
	Catalog  *catalog.Fetcher
	Cart     *cart.Synchronizer
	Profile  *profile.Fetcher
	Orders   *orders.History
	Checkout *checkout.Coordinator

	closers []func() error
}

// New opens the secret store and, when configured, the Redis catalog cache.
// Close releases both.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{Log: log}

	store, err := a.openStore(ctx, cfg.Client)
	if err != nil {
		return nil, err
	}

	opts := api.TransportOptions{Timeout: cfg.Client.HTTPTimeout}
	if cfg.Client.BreakerEnabled {
		opts.Breaker = &circuitbreaker.Settings{
			Name:                "storefront-api",
			ConsecutiveFailures: cfg.Client.BreakerFailures,
			Cooldown:            cfg.Client.BreakerCooldown,
			Logger:              log,
		}
	}
	raw := api.NewClient(cfg.Client.BaseURL,
		api.WithHTTPClient(api.NewHTTPClient(opts)),
		api.WithLogger(log),
	)

	a.Session = session.NewManager(store, raw, session.WithLogger(log))
	a.Client = raw.WithTokenSource(a.Session)

	var cache catalog.Cache
	if cfg.Client.RedisAddr != "" {
		if rc := a.openRedis(ctx, cfg.Client, log); rc != nil {
			cache = catalog.NewRedisCache(rc, cfg.Client.CatalogTTL)
		}
	}

	a.Catalog = catalog.NewFetcher(a.Client, cache, log)
	a.Cart = cart.NewSynchronizer(a.Client, log)
	a.Profile = profile.NewFetcher(a.Client, log)
	a.Orders = orders.NewHistory(a.Client, log)
	fee := cfg.Client.ShippingFee
	a.Checkout = checkout.NewCoordinator(a.Cart, a.Profile, checkout.Config{
		ShippingFee:   &fee,
		PaymentMethod: cfg.Client.PaymentMethod,
	}, log)

	a.Session.OnLogin(a.loadAccount)
	a.Session.OnLogout(a.resetAccount)

	return a, nil
}

// loadAccount pulls the profile and cart for a fresh session.
func (a *App) loadAccount(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Profile.Fetch(gctx) })
	g.Go(func() error { return a.Cart.Fetch(gctx) })
	return g.Wait()
}

func (a *App) resetAccount() {
	a.Cart.Reset()
	a.Profile.Reset()
	a.Orders.Reset()
	a.Checkout.Acknowledge()
}

func (a *App) openStore(ctx context.Context, cfg config.ClientConfig) (secretstore.Store, error) {
	if cfg.SecretDB == "" || cfg.SecretDB == config.MemorySecretDB {
		return secretstore.NewMemoryStore(), nil
	}
	if cfg.SecretPassphrase == "" {
		return nil, errors.New("STOREFRONT_SECRET_PASSPHRASE is required to open the secret store")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SecretDB), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create secret store directory: %w", err)
	}
	store, err := secretstore.OpenSQLite(ctx, cfg.SecretDB, cfg.SecretPassphrase)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// openRedis returns nil when Redis is unreachable; the catalog then runs
// uncached.
func (a *App) openRedis(ctx context.Context, cfg config.ClientConfig, log *slog.Logger) *redis.Client {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		log.WarnContext(ctx, "redis unavailable, catalog cache disabled",
			slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		rc.Close()
		return nil
	}
	a.closers = append(a.closers, rc.Close)
	return rc
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
