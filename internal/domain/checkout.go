package domain

// CheckoutSummary is what the checkout page shows before an order is placed.
type CheckoutSummary struct {
	Lines           []CartLine `json:"lines"`
	Subtotal        float64    `json:"subtotal"`
	ShippingFee     float64    `json:"shipping_fee"`
	GrandTotal      float64    `json:"grand_total"`
	ShippingAddress string     `json:"shipping_address"`
	ContactNumber   string     `json:"contact_number,omitempty"`
	PaymentMethod   string     `json:"payment_method"`
}

// NewCheckoutSummary snapshots lines and computes the totals.
func NewCheckoutSummary(lines []CartLine, profile UserProfile, shippingFee float64, paymentMethod string) CheckoutSummary {
	subtotal := TotalPrice(lines)
	return CheckoutSummary{
		Lines:           CloneLines(lines),
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		GrandTotal:      subtotal + shippingFee,
		ShippingAddress: profile.ShippingAddress(),
		ContactNumber:   profile.ContactNumber,
		PaymentMethod:   paymentMethod,
	}
}
