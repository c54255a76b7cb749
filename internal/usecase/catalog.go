package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// CatalogUseCase manages the product catalog behind the order core.
type CatalogUseCase struct {
	products repository.ProductRepository
}

// NewCatalogUseCase constructs CatalogUseCase.
func NewCatalogUseCase(products repository.ProductRepository) *CatalogUseCase {
	return &CatalogUseCase{products: products}
}

// CreateProductInput lists exactly the fields a seller may set.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int32
}

// CreateProduct adds a catalog entry. Only sellers and admins may create.
func (u *CatalogUseCase) CreateProduct(ctx context.Context, sellerID int64, role model.Role, in CreateProductInput) (*model.Product, error) {
	if !role.CanManageCatalog() {
		return nil, domainErrors.ErrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domainErrors.ErrInvalidProduct
	}
	if in.Price.IsNegative() || in.Stock < 0 {
		return nil, domainErrors.ErrInvalidProduct
	}

	product := &model.Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	return u.products.Create(ctx, product)
}

// Product fetches a single catalog entry.
func (u *CatalogUseCase) Product(ctx context.Context, id int64) (*model.Product, error) {
	return u.products.GetByID(ctx, id)
}

// Products lists the catalog, newest first.
func (u *CatalogUseCase) Products(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	return u.products.List(ctx, page, pageSize)
}
