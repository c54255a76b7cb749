package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Valid reports whether the status is one of the known values.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is accepted from the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// CanTransitionTo reports whether next is reachable from the current status:
// pending -> processing -> completed, pending|processing -> cancelled,
// any non-terminal status -> refunded.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case OrderStatusProcessing:
		return s == OrderStatusPending
	case OrderStatusCompleted:
		return s == OrderStatusProcessing
	case OrderStatusCancelled:
		return s.Cancellable()
	case OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus tracks payment independently from the order lifecycle.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ShippingAddress holds the delivery contact captured with the order.
type ShippingAddress struct {
	Name    string
	Phone   string
	Address string
}

// OrderLine is a single product position within an order. Unit price is a
// snapshot taken at order time and is never re-read from the catalog.
type OrderLine struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order represents a single purchase transaction with its owned lines.
type Order struct {
	ID             int64
	UserID         int64
	Number         string
	Status         OrderStatus
	TotalAmount    decimal.Decimal
	Shipping       ShippingAddress
	ShippingMethod string
	PaymentMethod  string
	PaymentStatus  PaymentStatus
	Notes          string
	Lines          []OrderLine
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
