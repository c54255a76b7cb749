package dto

import (
	"strings"
	"time"
)

// LineRequest is one requested order position.
type LineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// ShippingAddressRequest is the structured delivery contact.
type ShippingAddressRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// PlaceOrderRequest describes the order placement payload. Unknown fields are
// rejected at decode time; Validate covers the required ones.
type PlaceOrderRequest struct {
	Lines           []LineRequest          `json:"lines"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	ShippingMethod  string                 `json:"shipping_method"`
	PaymentMethod   string                 `json:"payment_method"`
	Notes           string                 `json:"notes"`
}

// Validate returns a field-error map for missing or malformed input.
// Line-level business validation happens in the use case.
func (r PlaceOrderRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if len(r.Lines) == 0 {
		errs["lines"] = "at least one line is required"
	}
	if strings.TrimSpace(r.ShippingAddress.Name) == "" {
		errs["shipping_address.name"] = "required"
	}
	if strings.TrimSpace(r.ShippingAddress.Phone) == "" {
		errs["shipping_address.phone"] = "required"
	}
	if strings.TrimSpace(r.ShippingAddress.Address) == "" {
		errs["shipping_address.address"] = "required"
	}
	if strings.TrimSpace(r.ShippingMethod) == "" {
		errs["shipping_method"] = "required"
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		errs["payment_method"] = "required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UpdateStatusRequest carries the requested lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderLineResponse describes one order position with its price snapshot.
type OrderLineResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// OrderResponse describes a placed order with its lines.
type OrderResponse struct {
	ID              int64                  `json:"id"`
	Number          string                 `json:"number"`
	Status          string                 `json:"status"`
	TotalAmount     string                 `json:"total_amount"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	ShippingMethod  string                 `json:"shipping_method"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentStatus   string                 `json:"payment_status"`
	Notes           string                 `json:"notes,omitempty"`
	Lines           []OrderLineResponse    `json:"lines"`
	CreatedAt       time.Time              `json:"created_at"`
}

// OrdersPageResponse is a paginated order listing.
type OrdersPageResponse struct {
	Orders   []OrderResponse `json:"orders"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
}
