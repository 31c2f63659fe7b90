package domain

import "strings"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus normalizes a server supplied status. Unknown or empty values
// map to PENDING.
func ParseOrderStatus(s string) OrderStatus {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st
	default:
		return OrderStatusPending
	}
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Order is the client's read-only projection of a placed order.
type Order struct {
	OrderID         int64       `json:"order_id"`
	Items           []OrderItem `json:"items"`
	TotalPrice      float64     `json:"total_price"`
	ShippingAddress string      `json:"shipping_address"`
	ContactNumber   string      `json:"contact_number,omitempty"`
	PaymentMethod   string      `json:"payment_method"`
	Status          OrderStatus `json:"status"`
}

// ItemCount is the total number of units across all items.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// ItemsTotal sums price*quantity over the order items.
func (o Order) ItemsTotal() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// CloneOrders copies orders together with their item slices.
func CloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		o.Items = append([]OrderItem{}, o.Items...)
		out[i] = o
	}
	return out
}
