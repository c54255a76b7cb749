package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// Pool is the subset of pgxpool.Pool the storage needs. Declared as an
// interface so tests can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   Pool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type productRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (Pool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Products() repository.ProductRepository {
	return &productRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id SERIAL PRIMARY KEY,
            seller_id BIGINT NOT NULL REFERENCES users(id),
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price NUMERIC(10,2) NOT NULL,
            stock INTEGER NOT NULL CHECK (stock >= 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            order_number TEXT UNIQUE NOT NULL,
            status TEXT NOT NULL,
            total_amount NUMERIC(10,2) NOT NULL,
            shipping_name TEXT NOT NULL,
            shipping_phone TEXT NOT NULL,
            shipping_address TEXT NOT NULL,
            shipping_method TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            deleted_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_lines (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            product_id BIGINT NOT NULL REFERENCES products(id),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(10,2) NOT NULL,
            subtotal NUMERIC(10,2) NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines(order_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash, role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Login = login
	u.PasswordHash = passwordHash
	u.Role = role
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE login=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- ProductRepository implementation ---

func (r *productRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	const query = `INSERT INTO products (seller_id, name, description, price, stock)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, created_at, updated_at`
	created := *product
	err := r.storage.pool.QueryRow(ctx, query,
		product.SellerID, product.Name, product.Description, product.Price, product.Stock,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT id, seller_id, name, description, price, stock, created_at, updated_at
                   FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := r.storage.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT id, seller_id, name, description, price, stock, created_at, updated_at
                   FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.storage.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, user_id, order_number, status, total_amount,
       shipping_name, shipping_phone, shipping_address, shipping_method,
       payment_method, payment_status, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Number, &o.Status, &o.TotalAmount,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Address, &o.ShippingMethod,
		&o.PaymentMethod, &o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create reserves stock for every line and persists the order with its lines
// inside one transaction. The stock check and decrement are a single
// conditional UPDATE, so two concurrent orders can never both pass a stale
// stock read. Any failure rolls the whole unit back: no stock changes, no rows.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	created := *order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		for _, line := range order.Lines {
			tag, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
				line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var available int32
				err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, line.ProductID).Scan(&available)
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return fmt.Errorf("%w: %d", domainErrors.ErrProductNotFound, line.ProductID)
					}
					return err
				}
				return domainErrors.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: available,
				}
			}
		}

		const insertOrder = `INSERT INTO orders
            (user_id, order_number, status, total_amount, shipping_name, shipping_phone,
             shipping_address, shipping_method, payment_method, payment_status, notes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            RETURNING id, created_at, updated_at`
		err := tx.QueryRow(ctx, insertOrder,
			order.UserID, order.Number, order.Status, order.TotalAmount,
			order.Shipping.Name, order.Shipping.Phone, order.Shipping.Address,
			order.ShippingMethod, order.PaymentMethod, order.PaymentStatus, order.Notes,
		).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}

		const insertLine = `INSERT INTO order_lines (order_id, product_id, quantity, unit_price, subtotal)
                            VALUES ($1, $2, $3, $4, $5) RETURNING id`
		created.Lines = make([]model.OrderLine, len(order.Lines))
		for i, line := range order.Lines {
			line.OrderID = created.ID
			if err := tx.QueryRow(ctx, insertLine,
				created.ID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal,
			).Scan(&line.ID); err != nil {
				return err
			}
			created.Lines[i] = line
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND deleted_at IS NULL`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[order.ID]
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64, statuses []model.OrderStatus, page, pageSize int) ([]model.Order, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var (
		total int64
		rows  pgx.Rows
		err   error
	)
	if len(statuses) == 0 {
		const countQuery = `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND deleted_at IS NULL`
		if err = r.storage.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
			return nil, 0, err
		}
		query := `SELECT ` + orderColumns + ` FROM orders
                  WHERE user_id = $1 AND deleted_at IS NULL
                  ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		rows, err = r.storage.pool.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	} else {
		filter := make([]string, 0, len(statuses))
		for _, s := range statuses {
			filter = append(filter, string(s))
		}
		const countQuery = `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status = ANY($2) AND deleted_at IS NULL`
		if err = r.storage.pool.QueryRow(ctx, countQuery, userID, filter).Scan(&total); err != nil {
			return nil, 0, err
		}
		query := `SELECT ` + orderColumns + ` FROM orders
                  WHERE user_id = $1 AND status = ANY($2) AND deleted_at IS NULL
                  ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		rows, err = r.storage.pool.Query(ctx, query, userID, filter, pageSize, (page-1)*pageSize)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []model.Order
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		lines, err := r.loadLines(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range orders {
			orders[i].Lines = lines[orders[i].ID]
		}
	}
	return orders, total, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderLine, error) {
	const query = `SELECT l.id, l.order_id, l.product_id, p.name, l.quantity, l.unit_price, l.subtotal
                   FROM order_lines l
                   JOIN products p ON p.id = l.product_id
                   WHERE l.order_id = ANY($1)
                   ORDER BY l.id`
	rows, err := r.storage.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]model.OrderLine)
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		result[l.OrderID] = append(result[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus re-validates the transition under a row lock before writing,
// so concurrent updates cannot race past the lifecycle graph.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var current model.OrderStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			orderID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if !current.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", domainErrors.ErrIllegalTransition, current, status)
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// Cancel releases every line's stock and flips the status inside one
// transaction. The status is re-read under a row lock, so a second concurrent
// cancel observes the cancelled state and fails without releasing stock twice.
func (r *orderRepository) Cancel(ctx context.Context, orderID int64) (*model.Order, error) {
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var current model.OrderStatus
		err := tx.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			orderID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		if !current.Cancellable() {
			return domainErrors.ErrOrderNotCancellable
		}

		rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM order_lines WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}
		type release struct {
			productID int64
			quantity  int32
		}
		var releases []release
		for rows.Next() {
			var rel release
			if err := rows.Scan(&rel.productID, &rel.quantity); err != nil {
				rows.Close()
				return err
			}
			releases = append(releases, rel)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, rel := range releases {
			if _, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
				rel.productID, rel.quantity); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			model.OrderStatusCancelled, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

func (r *orderRepository) SelectExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status = $1 AND payment_status = $2 AND created_at < $3 AND deleted_at IS NULL
              ORDER BY created_at LIMIT $4`
	rows, err := r.storage.pool.Query(ctx, query,
		model.OrderStatusPending, model.PaymentStatusUnpaid, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
