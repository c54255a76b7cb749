package repository

import (
	"context"
	"time"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// Create and Cancel are transactional units: Create reserves stock for every
// line and persists the order atomically, Cancel releases stock and flips the
// status atomically. Neither leaves partial effects behind on failure.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64, statuses []model.OrderStatus, page, pageSize int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error)
	Cancel(ctx context.Context, orderID int64) (*model.Order, error)
	SelectExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
}
