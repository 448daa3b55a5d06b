package cart

import "context"

// Shipping is the delivery information collected at checkout.
type Shipping struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

// CheckoutItem is one line of a checkout request.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Checkout is the body accepted by POST /api/orders.
type Checkout struct {
	Items           []CheckoutItem `json:"items"`
	ShippingName    string         `json:"shipping_name"`
	ShippingPhone   string         `json:"shipping_phone"`
	ShippingAddress string         `json:"shipping_address"`
	Notes           string         `json:"notes,omitempty"`
}

// CheckoutRequest builds the order request for the current lines. Prices
// are left to the server.
func (s *Store) CheckoutRequest(ctx context.Context, ship Shipping) (*Checkout, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	req := &Checkout{
		Items:           make([]CheckoutItem, 0, len(lines)),
		ShippingName:    ship.Name,
		ShippingPhone:   ship.Phone,
		ShippingAddress: ship.Address,
		Notes:           ship.Notes,
	}
	for _, l := range lines {
		item := CheckoutItem{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.Variant != nil {
			item.Size = l.Variant.Size
			item.Color = l.Variant.Color
		}
		req.Items = append(req.Items, item)
	}
	return req, nil
}
