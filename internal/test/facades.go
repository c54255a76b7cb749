package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// CatalogFacadeStub provides controllable behaviour for catalog endpoints.
type CatalogFacadeStub struct {
	CreateFn   func(context.Context, int64, model.Role, usecase.CreateProductInput) (*model.Product, error)
	ProductFn  func(context.Context, int64) (*model.Product, error)
	ProductsFn func(context.Context, int, int) ([]model.Product, int64, error)
}

// CreateProduct delegates to provided function or returns a default product.
func (s CatalogFacadeStub) CreateProduct(ctx context.Context, sellerID int64, role model.Role, in usecase.CreateProductInput) (*model.Product, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, sellerID, role, in)
	}
	return &model.Product{ID: 1, SellerID: sellerID, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

// Product returns configured product.
func (s CatalogFacadeStub) Product(ctx context.Context, id int64) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, id)
	}
	return &model.Product{ID: id, Name: "widget", Price: decimal.NewFromInt(10), Stock: 3}, nil
}

// Products returns configured catalog page.
func (s CatalogFacadeStub) Products(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx, page, pageSize)
	}
	return []model.Product{{ID: 1, Name: "widget", Price: decimal.NewFromInt(10)}}, 1, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn        func(context.Context, int64, usecase.PlaceOrderInput) (*model.Order, error)
	OrderFn        func(context.Context, int64, int64) (*model.Order, error)
	OrdersFn       func(context.Context, int64, int, int) ([]model.Order, int64, error)
	HistoryFn      func(context.Context, int64, int, int) ([]model.Order, int64, error)
	PendingFn      func(context.Context, int64, int, int) ([]model.Order, int64, error)
	UpdateStatusFn func(context.Context, int64, int64, model.OrderStatus) (*model.Order, error)
	CancelFn       func(context.Context, int64, int64) (*model.Order, error)
}

// PlaceOrder delegates to provided function or returns default pending order.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, userID int64, in usecase.PlaceOrderInput) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, userID, in)
	}
	return &model.Order{ID: 1, UserID: userID, Number: "ORD-1", Status: model.OrderStatusPending}, nil
}

// Order returns configured order.
func (s OrderFacadeStub) Order(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusPending}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID, page, pageSize)
	}
	return []model.Order{{ID: 1, UserID: userID, Status: model.OrderStatusPending}}, 1, nil
}

// OrderHistory returns predefined completed orders.
func (s OrderFacadeStub) OrderHistory(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, userID, page, pageSize)
	}
	return []model.Order{{ID: 2, UserID: userID, Status: model.OrderStatusCompleted}}, 1, nil
}

// PendingOrders returns predefined in-flight orders.
func (s OrderFacadeStub) PendingOrders(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, userID, page, pageSize)
	}
	return []model.Order{{ID: 1, UserID: userID, Status: model.OrderStatusPending}}, 1, nil
}

// UpdateOrderStatus delegates to configured override.
func (s OrderFacadeStub) UpdateOrderStatus(ctx context.Context, userID, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, userID, orderID, status)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: status}, nil
}

// CancelOrder delegates to configured override.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled}, nil
}

// MarketplaceFacadeStub aggregates facade dependencies for HTTP layer tests.
type MarketplaceFacadeStub struct {
	AuthFacadeStub
	CatalogFacadeStub
	OrderFacadeStub
}

// ExpiredCancelCall stores information about CancelExpiredOrder invocations.
type ExpiredCancelCall struct {
	OrderID int64
}

// WorkerFacadeStub mimics worker interactions with the expiry facade.
type WorkerFacadeStub struct {
	Batches         [][]model.Order
	ExpiredFn       func(context.Context, time.Time, int) ([]model.Order, error)
	CancelFn        func(context.Context, int64) (*model.Order, error)
	Cancelled       []ExpiredCancelCall
	mu              sync.Mutex
	expiredCallsSeq int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// ExpiredPendingOrders returns batches from configured queue.
func (s *WorkerFacadeStub) ExpiredPendingOrders(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if s.ExpiredFn != nil {
		return s.ExpiredFn(ctx, olderThan, limit)
	}
	call := atomic.AddInt32(&s.expiredCallsSeq, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// CancelExpiredOrder records cancellation requests.
func (s *WorkerFacadeStub) CancelExpiredOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancelled = append(s.Cancelled, ExpiredCancelCall{OrderID: orderID})
	return &model.Order{ID: orderID, Status: model.OrderStatusCancelled}, nil
}
