package handlers

import (
	"context"

	"github.com/polkiloo/marketplace/internal/domain/model"
	pkgAuth "github.com/polkiloo/marketplace/internal/pkg/auth"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string, role model.Role) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (pkgAuth.Identity, error)
}

// CatalogFacade exposes product catalog operations.
type CatalogFacade interface {
	CreateProduct(ctx context.Context, sellerID int64, role model.Role, in usecase.CreateProductInput) (*model.Product, error)
	Product(ctx context.Context, id int64) (*model.Product, error)
	Products(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (*model.Order, error)
	Order(ctx context.Context, userID, orderID int64) (*model.Order, error)
	Orders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error)
	OrderHistory(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error)
	PendingOrders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, userID, orderID int64, status model.OrderStatus) (*model.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	CatalogFacade
	OrderFacade
}
