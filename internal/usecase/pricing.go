package usecase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

// LineInput is one requested order position before pricing.
type LineInput struct {
	ProductID int64
	Quantity  int32
}

// ValidateLines checks structural validity of requested lines before any
// catalog access.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return domainErrors.ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %d", domainErrors.ErrInvalidQuantity, line.ProductID)
		}
	}
	return nil
}

// PriceLines attaches unit prices resolved by prior catalog lookups, computes
// per-line subtotals and the order total. Pure computation, no I/O: stock
// reservation is sequenced separately so a doomed order never reserves anything.
func PriceLines(lines []LineInput, products map[int64]*model.Product) ([]model.OrderLine, decimal.Decimal, error) {
	priced := make([]model.OrderLine, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %d", domainErrors.ErrProductNotFound, line.ProductID)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt32(line.Quantity))
		priced = append(priced, model.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	return priced, total, nil
}

// GenerateOrderNumber produces a human-facing order identifier with 64 bits of
// random entropy. Uniqueness is still enforced by the database constraint.
func GenerateOrderNumber() string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%X", id[:8])
}
