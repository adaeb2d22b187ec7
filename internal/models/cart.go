package models

// CartItem is a single quantity-keyed line in the shopping cart.
type CartItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	UnitPrice float64  `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Weight    *float64 `json:"weight,omitempty"`
	Image     string   `json:"image,omitempty"`
}

// Subtotal is the line total for this item.
func (i CartItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
