// Package backend is an in-memory implementation of the storefront REST API.
// It backs cmd/mock-backend and the integration tests of the client packages.
package backend

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/fjod/go_cart/storefront/internal/api"
)

const (
	DefaultShippingFee   = 15.0
	DefaultPaymentMethod = "Cash On Delivery"
)

type Config struct {
	JWTSecret string
	// AccessTTL is the lifetime of issued access tokens. Zero means 15 minutes.
	AccessTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// ShippingFee is added to every order total. Nil means DefaultShippingFee.
	ShippingFee *float64
	// Products replaces the seeded catalog when non-nil.
	Products []api.ProductDTO
	Logger   *slog.Logger
	// Now overrides the clock used for token issue and validation.
	Now func() time.Time
}

type user struct {
	id           int64
	passwordHash []byte
	profile      api.ProfileResponse
}

type cartEntry struct {
	productID int64
	quantity  int
}

type Server struct {
	cfg Config
	log *slog.Logger

	mu            sync.Mutex
	nextUserID    int64
	nextOrderID   int64
	usersByEmail  map[string]*user
	usersByID     map[int64]*user
	refreshTokens map[string]int64
	carts         map[int64][]cartEntry
	orders        map[int64][]api.OrderDTO
	products      []api.ProductDTO

	faults *faults
}

func NewServer(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "mock-backend-secret"
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.ShippingFee == nil {
		fee := DefaultShippingFee
		cfg.ShippingFee = &fee
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	products := cfg.Products
	if products == nil {
		products = seedProducts()
	}

	return &Server{
		cfg:           cfg,
		log:           cfg.Logger,
		nextUserID:    1,
		nextOrderID:   1001,
		usersByEmail:  make(map[string]*user),
		usersByID:     make(map[int64]*user),
		refreshTokens: make(map[string]int64),
		carts:         make(map[int64][]cartEntry),
		orders:        make(map[int64][]api.OrderDTO),
		products:      products,
		faults:        newFaults(),
	}
}

// Handler returns the routed API wrapped with tracing.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.faults.middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post(api.PathRegister, s.handleRegister)
	r.Post(api.PathLogin, s.handleLogin)
	r.Post(api.PathRefresh, s.handleRefresh)
	r.Get(api.PathProducts, s.handleProducts)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get(api.PathProfile, s.handleGetProfile)
		r.Post(api.PathProfile, s.handleUpdateProfile)
		r.Post(api.PathUpdateUserInfo, s.handleUpdateUserInfo)

		r.Get(api.PathCart, s.handleGetCart)
		r.Post(api.PathCartAdd, s.handleAddToCart)
		r.Post(api.PathCartUpdate, s.handleUpdateQuantity)
		r.Delete(api.PathCartClear, s.handleClearCart)

		r.Post(api.PathCheckout, s.handleCheckout)
		r.Get(api.PathOrders, s.handleOrders)
	})

	return otelhttp.NewHandler(r, "mock-backend")
}

// Fail makes every request to method+path answer status with body until
// Heal is called.
func (s *Server) Fail(method, path string, status int, body string) {
	s.faults.fail(method, path, status, body)
}

// Delay holds every request to method+path for d before handling it.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.faults.delay(method, path, d)
}

func (s *Server) Heal(method, path string) {
	s.faults.heal(method, path)
}

// Hits reports how many requests reached method+path, injected failures
// included.
func (s *Server) Hits(method, path string) int {
	return s.faults.hits(method, path)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.DebugContext(r.Context(), "request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get("X-Request-ID")),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

func seedProducts() []api.ProductDTO {
	return []api.ProductDTO{
		{ID: 1, Name: "Classic Glazed Donut", Description: "Light yeast donut with a sugar glaze.", Price: 1.5, Allergens: "wheat, milk, egg", ImageURL: "https://cdn.example.com/products/glazed.png"},
		{ID: 2, Name: "Chocolate Croissant", Description: "Butter croissant filled with dark chocolate.", Price: 3.25, Allergens: "wheat, milk", ImageURL: "https://cdn.example.com/products/croissant.png"},
		{ID: 3, Name: "Blueberry Muffin", Description: "Muffin with wild blueberries.", Price: 2.75, Allergens: "wheat, egg", ImageURL: "https://cdn.example.com/products/muffin.png"},
		{ID: 4, Name: "Sourdough Loaf", Description: "Naturally leavened country loaf.", Price: 6.0, Allergens: "wheat", ImageURL: "https://cdn.example.com/products/sourdough.png"},
		{ID: 5, Name: "Iced Latte", Description: "Double espresso over ice with milk.", Price: 4.5, Allergens: "milk", ImageURL: "https://cdn.example.com/products/latte.png"},
	}
}
