package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry offered by a seller.
// Stock is the only field the order core ever mutates, and always through
// an atomic check-and-decrement or a compensating increment.
type Product struct {
	ID          int64
	SellerID    int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
