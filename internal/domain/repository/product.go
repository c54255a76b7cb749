package repository

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// ProductRepository is the catalog gateway backing store. Stock mutations
// happen only inside order transactions and are not part of this interface.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)
}
