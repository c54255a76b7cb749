package test

import (
	"context"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ProductRepositoryStub stores products in-memory for tests.
type ProductRepositoryStub struct {
	CreateFn  func(context.Context, *model.Product) (*model.Product, error)
	GetByIDFn func(context.Context, int64) (*model.Product, error)
	ListFn    func(context.Context, int, int) ([]model.Product, int64, error)

	Products map[int64]*model.Product
	Next     int64
	Err      error
}

// NewProductRepositoryStub constructs stub with initialized map.
func NewProductRepositoryStub() *ProductRepositoryStub {
	return &ProductRepositoryStub{Products: make(map[int64]*model.Product), Next: 1}
}

// Create stores the product assigning a sequential identifier.
func (s *ProductRepositoryStub) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, product)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Products == nil {
		s.Products = make(map[int64]*model.Product)
	}
	if s.Next == 0 {
		s.Next = 1
	}
	stored := *product
	stored.ID = s.Next
	s.Next++
	s.Products[stored.ID] = &stored
	return &stored, nil
}

// GetByID returns the stored product or not found.
func (s *ProductRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if product, ok := s.Products[id]; ok {
		return product, nil
	}
	return nil, domainErrors.ErrNotFound
}

// List returns stored products without paging logic.
func (s *ProductRepositoryStub) List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, page, pageSize)
	}
	if s.Err != nil {
		return nil, 0, s.Err
	}
	items := make([]model.Product, 0, len(s.Products))
	for _, p := range s.Products {
		items = append(items, *p)
	}
	return items, int64(len(items)), nil
}

// OrderRepositoryStub allows tests to customize behaviour.
type OrderRepositoryStub struct {
	CreateFn               func(context.Context, *model.Order) (*model.Order, error)
	GetByIDFn              func(context.Context, int64) (*model.Order, error)
	ListByUserFn           func(context.Context, int64, []model.OrderStatus, int, int) ([]model.Order, int64, error)
	UpdateStatusFn         func(context.Context, int64, model.OrderStatus) (*model.Order, error)
	CancelFn               func(context.Context, int64) (*model.Order, error)
	SelectExpiredPendingFn func(context.Context, time.Time, int) ([]model.Order, error)

	Created     []model.Order
	Orders      map[int64]*model.Order
	Expired     []model.Order
	UpdateCalls []StatusUpdateCall
	CancelCalls []int64
}

// StatusUpdateCall stores information about UpdateStatus invocations.
type StatusUpdateCall struct {
	OrderID int64
	Status  model.OrderStatus
}

// Create tracks the order and returns it with an identifier assigned.
func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	stored := *order
	stored.ID = int64(len(s.Created) + 1)
	s.Created = append(s.Created, stored)
	return &stored, nil
}

// GetByID returns matched order either via override or stored map.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if order, ok := s.Orders[id]; ok {
		return order, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns orders from configured map filtered by statuses.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64, statuses []model.OrderStatus, page, pageSize int) ([]model.Order, int64, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID, statuses, page, pageSize)
	}
	matches := func(status model.OrderStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if st == status {
				return true
			}
		}
		return false
	}
	items := make([]model.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		if o.UserID == userID && matches(o.Status) {
			items = append(items, *o)
		}
	}
	return items, int64(len(items)), nil
}

// UpdateStatus records update invocations and mutates stored order.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, status)
	}
	s.UpdateCalls = append(s.UpdateCalls, StatusUpdateCall{OrderID: orderID, Status: status})
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order.Status = status
	return order, nil
}

// Cancel records cancel invocations and mutates stored order.
func (s *OrderRepositoryStub) Cancel(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID)
	}
	s.CancelCalls = append(s.CancelCalls, orderID)
	order, ok := s.Orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if !order.Status.Cancellable() {
		return nil, domainErrors.ErrOrderNotCancellable
	}
	order.Status = model.OrderStatusCancelled
	return order, nil
}

// SelectExpiredPending returns configured expired orders.
func (s *OrderRepositoryStub) SelectExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	if s.SelectExpiredPendingFn != nil {
		return s.SelectExpiredPendingFn(ctx, olderThan, limit)
	}
	return s.Expired, nil
}
