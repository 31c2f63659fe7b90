package backend

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/api"
)

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := append([]api.ProductDTO(nil), s.products...)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, api.ProductsResponse{Products: products})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.carts[userIDFrom(r.Context())]
	items := make([]api.CartItemDTO, 0, len(entries))
	for _, e := range entries {
		p, _ := s.productLocked(e.productID)
		items = append(items, api.CartItemDTO{
			ProductID: e.productID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  e.quantity,
			ImageURL:  p.ImageURL,
		})
	}
	respondJSON(w, http.StatusOK, api.CartItemsResponse{CartItems: items})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req api.CartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productLocked(req.ProductID); !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	userID := userIDFrom(r.Context())
	current := s.quantityLocked(userID, req.ProductID)
	s.setQuantityLocked(userID, req.ProductID, current+req.Quantity)

	respondOK(w, "Item added to cart")
}

// handleUpdateQuantity sets an absolute quantity; zero removes the line.
func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req api.CartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productLocked(req.ProductID); !ok {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	s.setQuantityLocked(userIDFrom(r.Context()), req.ProductID, req.Quantity)

	respondOK(w, "Cart updated")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.carts, userIDFrom(r.Context()))
	s.mu.Unlock()

	respondOK(w, "Cart cleared")
}

func (s *Server) productLocked(id int64) (api.ProductDTO, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return api.ProductDTO{}, false
}

func (s *Server) quantityLocked(userID, productID int64) int {
	for _, e := range s.carts[userID] {
		if e.productID == productID {
			return e.quantity
		}
	}
	return 0
}

// setQuantityLocked keeps at most one entry per product, in insertion order.
func (s *Server) setQuantityLocked(userID, productID int64, quantity int) {
	entries := s.carts[userID]
	for i, e := range entries {
		if e.productID != productID {
			continue
		}
		if quantity == 0 {
			s.carts[userID] = append(entries[:i], entries[i+1:]...)
		} else {
			entries[i].quantity = quantity
		}
		return
	}
	if quantity > 0 {
		s.carts[userID] = append(entries, cartEntry{productID: productID, quantity: quantity})
	}
}
