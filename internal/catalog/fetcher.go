// Package catalog loads the product list, optionally through a shared cache.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/state"
)

const cacheWriteTimeout = 2 * time.Second

type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

type Fetcher struct {
	api      API
	cache    Cache
	products *state.Value[[]domain.Product]
	sfg      singleflight.Group
	log      *slog.Logger
}

// NewFetcher accepts a nil cache, in which case every Fetch goes to the
// server.
func NewFetcher(client API, cache Cache, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		api:      client,
		cache:    cache,
		products: state.NewValue([]domain.Product{}, state.WithClone(domain.CloneProducts)),
		log:      log.With(slog.String("component", "catalog")),
	}
}

// Fetch loads the catalog from the cache, falling back to the server.
// Concurrent calls share one load.
func (f *Fetcher) Fetch(ctx context.Context) error {
	v, err, _ := f.sfg.Do("fetch", func() (any, error) {
		if f.cache != nil {
			products, err := f.cache.Get(ctx)
			if err == nil {
				return products, nil
			}
			if !errors.Is(err, ErrCacheMiss) {
				f.log.WarnContext(ctx, "cache get error", slog.Any("error", err))
			}
		}
		return f.load(ctx)
	})
	if err != nil {
		return err
	}
	f.products.Set(v.([]domain.Product))
	return nil
}

// Refresh drops the cached list and reloads from the server.
func (f *Fetcher) Refresh(ctx context.Context) error {
	if f.cache != nil {
		if err := f.cache.Delete(ctx); err != nil {
			f.log.WarnContext(ctx, "cache invalidate error", slog.Any("error", err))
		}
	}
	v, err, _ := f.sfg.Do("refresh", func() (any, error) {
		return f.load(ctx)
	})
	if err != nil {
		return err
	}
	f.products.Set(v.([]domain.Product))
	return nil
}

func (f *Fetcher) load(ctx context.Context) ([]domain.Product, error) {
	products, err := f.api.ListProducts(ctx)
	if err != nil {
		f.log.WarnContext(ctx, "failed to fetch products", slog.Any("error", err))
		return nil, err
	}

	if f.cache != nil {
		snapshot := append([]domain.Product(nil), products...)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
			defer cancel()
			if err := f.cache.Set(ctx, snapshot); err != nil {
				f.log.Warn("cache set error", slog.Any("error", err))
			}
		}()
	}
	return products, nil
}

func (f *Fetcher) Products() []domain.Product {
	return domain.CloneProducts(f.products.Get())
}

func (f *Fetcher) Product(id int64) (domain.Product, bool) {
	for _, p := range f.products.Get() {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Search matches term against product names, ignoring case. An empty term
// matches everything.
func (f *Fetcher) Search(term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []domain.Product{}
	for _, p := range f.products.Get() {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Fetcher) Subscribe() (<-chan []domain.Product, func()) {
	return f.products.Subscribe()
}
