package domain

// CartLine is one product/quantity pairing in a cart. A quantity of 0 means the
// line is absent.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// TotalPrice sums unitPrice*quantity over lines.
func TotalPrice(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}

// CloneLines returns a copy that shares no backing array with lines.
// A nil or empty input yields an empty, non-nil slice.
func CloneLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

// FindLine returns the line for productID, if any.
func FindLine(lines []CartLine, productID int64) (CartLine, bool) {
	for _, l := range lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}
