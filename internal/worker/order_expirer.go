package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
)

// ExpiryFacade exposes the subset of application functionality required by the worker.
type ExpiryFacade interface {
	ExpiredPendingOrders(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
	CancelExpiredOrder(ctx context.Context, orderID int64) (*model.Order, error)
}

// OrderExpirer cancels stale unpaid pending orders concurrently, returning
// their reserved stock to the catalog.
type OrderExpirer struct {
	facade       ExpiryFacade
	expiry       time.Duration
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOrderExpirer constructs order expirer worker pool.
func NewOrderExpirer(facade ExpiryFacade, expiry, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OrderExpirer {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &OrderExpirer{
		facade:       facade,
		expiry:       expiry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *OrderExpirer) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *OrderExpirer) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *OrderExpirer) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *OrderExpirer) fetchAndDispatch(ctx context.Context) {
	cutoff := time.Now().Add(-p.expiry)
	orders, err := p.facade.ExpiredPendingOrders(ctx, cutoff, p.batchSize)
	if err != nil {
		p.logger.Error("fetch expired pending orders failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *OrderExpirer) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.expireOrder(ctx, order)
		}
	}
}

func (p *OrderExpirer) expireOrder(ctx context.Context, order model.Order) {
	_, err := p.facade.CancelExpiredOrder(ctx, order.ID)
	switch {
	case err == nil:
		p.logger.Info("expired pending order cancelled",
			slog.Int64("order_id", order.ID),
			slog.String("number", order.Number))
	case errors.Is(err, domainErrors.ErrIllegalTransition), errors.Is(err, domainErrors.ErrNotFound):
		// Order moved on or was paid between the poll and the cancel. Nothing to do.
	default:
		p.logger.Error("cancel expired order failed",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()))
	}
}
