package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ordersvc/internal/domain"
	"ordersvc/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// OrderPage is one page of orders plus pagination metadata.
// LastPage = ceil(Total / limit).
type OrderPage struct {
	Orders   []domain.Order
	Total    int
	Page     int
	LastPage int
}

// Create persists the order and its line items in one transaction. Either the
// whole aggregate becomes visible or nothing does.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewPersistenceError("beginning order transaction", err)
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO Orders (id, status, totalAmount, totalItems, paid)
		VALUES (?, ?, ?, ?, ?)
	`, order.ID, string(order.Status), order.TotalAmount, order.TotalItems, order.Paid)
	if err != nil {
		return nil, errors.NewPersistenceError("inserting order", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO OrderItems (orderId, productId, quantity, price)
			VALUES (?, ?, ?, ?)
		`, order.ID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return nil, errors.NewPersistenceError("inserting order item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewPersistenceError("committing order", err)
	}

	return r.FindByID(ctx, order.ID)
}

// FindByID returns the full aggregate: order, line items, and receipt when
// one exists.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, status, totalAmount, totalItems, paid, paidAt,
		       paymentReference, createdAt, updatedAt
		FROM Orders
		WHERE id = ?
	`

	var order domain.Order
	var status string
	var paidAt sql.NullTime
	var paymentRef sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &status, &order.TotalAmount, &order.TotalItems, &order.Paid,
		&paidAt, &paymentRef, &order.CreatedAt, &order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	order.Status = domain.Status(status)
	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}
	if paymentRef.Valid {
		order.PaymentReference = &paymentRef.String
	}

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	receipt, err := r.findReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Receipt = receipt

	return &order, nil
}

func (r *MySQLOrderRepository) findItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT productId, quantity, price
		FROM OrderItems
		WHERE orderId = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}

	return items, nil
}

func (r *MySQLOrderRepository) findReceipt(ctx context.Context, orderID string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.QueryRowContext(ctx, `
		SELECT id, orderId, receiptUrl, createdAt
		FROM OrderReceipts
		WHERE orderId = ?
	`, orderID).Scan(&receipt.ID, &receipt.OrderID, &receipt.ReceiptURL, &receipt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying order receipt: %w", err)
	}

	return &receipt, nil
}

// FindPage returns one page of orders, optionally filtered by status. Line
// items are not loaded for listings. Page is 1-indexed; limit must be >= 1.
func (r *MySQLOrderRepository) FindPage(ctx context.Context, status domain.Status, page, limit int) (*OrderPage, error) {
	countQuery := `SELECT COUNT(*) FROM Orders`
	listQuery := `
		SELECT id, status, totalAmount, totalItems, paid, paidAt,
		       paymentReference, createdAt, updatedAt
		FROM Orders
	`

	var countArgs, listArgs []any
	if status != "" {
		countQuery += ` WHERE status = ?`
		listQuery += ` WHERE status = ?`
		countArgs = append(countArgs, string(status))
		listArgs = append(listArgs, string(status))
	}
	listQuery += ` ORDER BY createdAt, id LIMIT ? OFFSET ?`
	listArgs = append(listArgs, limit, (page-1)*limit)

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying orders page: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var rowStatus string
		var paidAt sql.NullTime
		var paymentRef sql.NullString

		err := rows.Scan(
			&order.ID, &rowStatus, &order.TotalAmount, &order.TotalItems, &order.Paid,
			&paidAt, &paymentRef, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}

		order.Status = domain.Status(rowStatus)
		if paidAt.Valid {
			order.PaidAt = &paidAt.Time
		}
		if paymentRef.Valid {
			order.PaymentReference = &paymentRef.String
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders page: %w", err)
	}

	return &OrderPage{
		Orders:   orders,
		Total:    total,
		Page:     page,
		LastPage: (total + limit - 1) / limit,
	}, nil
}

// UpdateStatus rejects illegal transitions, then applies the change with a
// compare-and-set on the expected current status, so a concurrent mutation on
// the same order cannot be silently overwritten. When the guarded update
// misses, the current row decides: already in the requested state is a no-op,
// anything else lost the race.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (*domain.Order, error) {
	if !from.CanTransitionTo(to) {
		return nil, errors.NewInvalidTransitionError(
			fmt.Sprintf("cannot move order %s from %s to %s", id, from, to))
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE Orders SET status = ? WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		return nil, errors.NewPersistenceError("updating order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewPersistenceError("getting rows affected", err)
	}

	if rowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == to {
			return current, nil
		}
		return nil, errors.NewInvalidTransitionError(
			fmt.Sprintf("cannot move order %s from %s to %s", id, current.Status, to))
	}

	return r.FindByID(ctx, id)
}

// ReconcilePayment marks the order paid in one atomic write: status PAID,
// paid flag, paidAt, payment reference, and the receipt row. The PENDING
// guard makes redelivered events no-ops; an order already past PAID only has
// missing bookkeeping filled in, its status is never touched. A CANCELLED
// unpaid order is left unchanged.
func (r *MySQLOrderRepository) ReconcilePayment(ctx context.Context, orderID, paymentRef, receiptURL string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewPersistenceError("beginning reconcile transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE Orders
		SET status = ?, paid = TRUE, paidAt = NOW(), paymentReference = ?
		WHERE id = ? AND status = ?
	`, string(domain.StatusPaid), paymentRef, orderID, string(domain.StatusPending))
	if err != nil {
		return nil, errors.NewPersistenceError("marking order paid", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewPersistenceError("getting rows affected", err)
	}

	if rowsAffected == 0 {
		var status string
		var paid bool
		err := tx.QueryRowContext(ctx, `
			SELECT status, paid FROM Orders WHERE id = ? FOR UPDATE
		`, orderID).Scan(&status, &paid)
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", orderID))
		}
		if err != nil {
			return nil, errors.NewPersistenceError("reading order for reconcile", err)
		}

		if !paid {
			// CANCELLED before payment confirmation arrived. Recording the
			// payment would break the paid/status invariant, so the event is
			// dropped; the caller logs it.
			return r.FindByID(ctx, orderID)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE Orders SET paymentReference = COALESCE(paymentReference, ?) WHERE id = ?
		`, paymentRef, orderID)
		if err != nil {
			return nil, errors.NewPersistenceError("backfilling payment reference", err)
		}
	}

	// orderId is unique-keyed; a replayed event leaves the existing receipt.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO OrderReceipts (orderId, receiptUrl)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE receiptUrl = receiptUrl
	`, orderID, receiptURL)
	if err != nil {
		return nil, errors.NewPersistenceError("inserting order receipt", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewPersistenceError("committing reconcile", err)
	}

	return r.FindByID(ctx, orderID)
}
