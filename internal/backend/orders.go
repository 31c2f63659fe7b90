package backend

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// handleCheckout turns the cart into a PENDING order and empties the cart.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.carts[userID]
	if len(entries) == 0 {
		respondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	u := s.usersByID[userID]
	order := api.OrderDTO{
		OrderID:       s.nextOrderID,
		Items:         make([]api.OrderItemDTO, 0, len(entries)),
		Address:       u.profile.ToDomain().ShippingAddress(),
		ContactNumber: u.profile.ContactNumber,
		PaymentMethod: DefaultPaymentMethod,
		Status:        domain.OrderStatusPending.String(),
	}
	var subtotal float64
	for _, e := range entries {
		p, _ := s.productLocked(e.productID)
		order.Items = append(order.Items, api.OrderItemDTO{
			ProductID:   e.productID,
			ProductName: p.Name,
			Quantity:    e.quantity,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
		})
		subtotal += p.Price * float64(e.quantity)
	}
	total := subtotal + *s.cfg.ShippingFee
	order.TotalPrice = &total

	s.nextOrderID++
	s.orders[userID] = append(s.orders[userID], order)
	delete(s.carts, userID)

	id := order.OrderID
	respondJSON(w, http.StatusOK, api.CheckoutResponse{
		Success: true,
		Message: "Order placed successfully",
		OrderID: &id,
	})
}

// handleOrders lists the caller's orders, newest first.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	placed := s.orders[userIDFrom(r.Context())]
	list := make([]api.OrderDTO, 0, len(placed))
	for i := len(placed) - 1; i >= 0; i-- {
		list = append(list, placed[i])
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, api.OrdersResponse{Success: true, Orders: list})
}
