package app

import (
	"context"
	"time"

	"github.com/polkiloo/marketplace/internal/domain/model"
	pkgAuth "github.com/polkiloo/marketplace/internal/pkg/auth"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// MarketplaceFacade aggregates the use cases behind a single application surface.
type MarketplaceFacade struct {
	auth    *usecase.AuthUseCase
	catalog *usecase.CatalogUseCase
	orders  *usecase.OrderUseCase
}

func NewMarketplaceFacade(auth *usecase.AuthUseCase, catalog *usecase.CatalogUseCase, orders *usecase.OrderUseCase) *MarketplaceFacade {
	return &MarketplaceFacade{auth: auth, catalog: catalog, orders: orders}
}

func (f *MarketplaceFacade) Register(ctx context.Context, login, password string, role model.Role) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password, role)
	return token, err
}

func (f *MarketplaceFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *MarketplaceFacade) ParseToken(token string) (pkgAuth.Identity, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketplaceFacade) CreateProduct(ctx context.Context, sellerID int64, role model.Role, in usecase.CreateProductInput) (*model.Product, error) {
	return f.catalog.CreateProduct(ctx, sellerID, role, in)
}

func (f *MarketplaceFacade) Product(ctx context.Context, id int64) (*model.Product, error) {
	return f.catalog.Product(ctx, id)
}

func (f *MarketplaceFacade) Products(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	return f.catalog.Products(ctx, page, pageSize)
}

func (f *MarketplaceFacade) PlaceOrder(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (*model.Order, error) {
	return f.orders.Place(ctx, userID, in)
}

func (f *MarketplaceFacade) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, userID, orderID)
}

func (f *MarketplaceFacade) Orders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return f.orders.ListByUser(ctx, userID, page, pageSize)
}

func (f *MarketplaceFacade) OrderHistory(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return f.orders.History(ctx, userID, page, pageSize)
}

func (f *MarketplaceFacade) PendingOrders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return f.orders.Pending(ctx, userID, page, pageSize)
}

func (f *MarketplaceFacade) UpdateOrderStatus(ctx context.Context, userID, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, userID, orderID, status)
}

func (f *MarketplaceFacade) CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.orders.Cancel(ctx, userID, orderID)
}

func (f *MarketplaceFacade) ExpiredPendingOrders(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return f.orders.ExpiredPending(ctx, olderThan, limit)
}

func (f *MarketplaceFacade) CancelExpiredOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.orders.CancelExpired(ctx, orderID)
}
