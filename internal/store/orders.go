package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shoply/internal/models"
)

// OrderLine is one requested entry of an order: a product, how many units,
// and the unit price the caller saw when placing the order.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

type Orders struct{ DB *pgxpool.Pool }

// Place creates an order with its items and decrements product stock, all in
// one transaction. Processing is in line order: each product row is locked
// with FOR UPDATE, checked against the requested quantity and decremented
// before the next line is touched. Because the check reads the row inside
// the same transaction, two lines for the same product are validated against
// the already-decremented stock. Any failure rolls the whole placement back;
// no partial orders and no partial stock changes are ever committed.
func (s *Orders) Place(ctx context.Context, userID uuid.UUID, lines []OrderLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ValidationError{Message: "at least one item is required"}
	}
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, ValidationError{Message: "quantity must be greater than zero"}
		}
		if ln.Price.IsNegative() {
			return nil, ValidationError{Message: "price must not be negative"}
		}
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_price, is_paid, created_at)
		VALUES ($1, $2, 0, FALSE, $3)`,
		order.ID, userID, order.CreatedAt,
	); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, ln := range lines {
		var name string
		var stock int
		err := tx.QueryRow(ctx,
			`SELECT name, stock FROM products WHERE id = $1 FOR UPDATE`,
			ln.ProductID,
		).Scan(&name, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ProductNotFoundError{ProductID: ln.ProductID}
		}
		if err != nil {
			return nil, err
		}

		if stock < ln.Quantity {
			return nil, InsufficientStockError{
				ProductID:   ln.ProductID,
				ProductName: name,
				Available:   stock,
				Requested:   ln.Quantity,
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1`,
			ln.ProductID, ln.Quantity,
		); err != nil {
			return nil, err
		}

		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   ln.ProductID,
			ProductName: name,
			Quantity:    ln.Quantity,
			Price:       ln.Price,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price,
		); err != nil {
			return nil, err
		}

		order.Items = append(order.Items, item)
		total = total.Add(ln.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	order.TotalPrice = total
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET total_price = $2 WHERE id = $1`,
		order.ID, total,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first, with their items.
func (s *Orders) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, total_price, is_paid, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.IsPaid, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := s.itemsForOrder(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// FindForUser returns the order only when it belongs to the given user;
// another user's order is indistinguishable from a missing one.
func (s *Orders) FindForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, total_price, is_paid, created_at
		FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.IsPaid, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.itemsForOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *Orders) itemsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
