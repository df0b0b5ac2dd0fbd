package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/pkg/contracts"
	"github.com/nazeru/storefront-api/pkg/outbox"
)

type Orders struct {
	pool  *pgxpool.Pool
	topic string
}

const orderCols = `id, user_id, street, city, state, zip_code, phone, country, payment_method,
	subtotal, shipping_price, tax_price, total, status,
	is_paid, paid_at, is_delivered, delivered_at, cancelled_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Phone, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.Subtotal, &o.ShippingPrice, &o.TaxPrice, &o.Total, &o.Status,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Orders) event(eventType string, o *domain.Order, payload map[string]any) contracts.Event {
	return contracts.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   o.ID,
		UserID:    o.UserID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Create persists the order, decrements stock per line item and queues the
// order.created event, all in one transaction. Stock decrements are
// conditional; a row left unaffected means the stock check lost to a
// concurrent order and the whole transaction rolls back.
func (r *Orders) Create(ctx context.Context, o *domain.Order, idemKey string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range o.Items {
		ct, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
			it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", it.ProductID, domain.ErrInsufficientStock)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO orders(id, user_id, street, city, state, zip_code, phone, country, payment_method,
			subtotal, shipping_price, tax_price, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		o.ID, o.UserID,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.ZipCode, o.ShippingAddress.Phone, o.ShippingAddress.Country,
		o.PaymentMethod, o.Subtotal, o.ShippingPrice, o.TaxPrice, o.Total, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items(order_id, product_id, name, image, price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, it.ProductID, it.Name, it.Image, it.Price, it.Quantity)
		if err != nil {
			return err
		}
	}

	if idemKey != "" {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_idempotency(idempotency_key, order_id) VALUES ($1, $2)`, idemKey, o.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrIdempotencyReplay
			}
			return err
		}
	}

	evt := r.event(contracts.EventOrderCreated, o, map[string]any{"total": o.Total, "items": len(o.Items)})
	if err := outbox.InsertTx(ctx, tx, evt.EventID, r.topic, o.ID, evt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Orders) IDByIdempotencyKey(ctx context.Context, key string) (string, error) {
	var orderID string
	err := r.pool.QueryRow(ctx, `SELECT order_id FROM order_idempotency WHERE idempotency_key=$1`, key).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrOrderNotFound
	}
	return orderID, err
}

func (r *Orders) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, map[string]*domain.Order{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Orders) loadItems(ctx context.Context, byID map[string]*domain.Order) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, name, image, price, quantity FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Image, &it.Price, &it.Quantity); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

type OrderFilter struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

func (r *Orders) List(ctx context.Context, f OrderFilter) ([]domain.Order, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	where := ` WHERE 1=1`
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += ` AND user_id=$` + itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status=$` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders`+where+
			` ORDER BY created_at DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	byID := map[string]*domain.Order{}
	var order []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		byID[o.ID] = o
		order = append(order, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(byID) > 0 {
		if err := r.loadItems(ctx, byID); err != nil {
			return nil, 0, err
		}
	}

	out := make([]domain.Order, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, total, nil
}

// UpdateStatus persists the status and paid/delivered flags already set on
// the order by the service, queuing the matching lifecycle event.
func (r *Orders) UpdateStatus(ctx context.Context, o *domain.Order, eventType string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, is_paid=$3, paid_at=$4, is_delivered=$5, delivered_at=$6, updated_at=now() WHERE id=$1`,
		o.ID, o.Status, o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	if eventType != "" {
		evt := r.event(eventType, o, map[string]any{"status": o.Status})
		if err := outbox.InsertTx(ctx, tx, evt.EventID, r.topic, o.ID, evt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CancelAndRestore marks the order cancelled and returns every line item's
// quantity to product stock in one transaction.
func (r *Orders) CancelAndRestore(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, cancelled_at=$3, updated_at=now() WHERE id=$1`,
		o.ID, o.Status, o.CancelledAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	if err := restoreStock(ctx, tx, o.Items); err != nil {
		return err
	}

	evt := r.event(contracts.EventOrderCancelled, o, nil)
	if err := outbox.InsertTx(ctx, tx, evt.EventID, r.topic, o.ID, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete hard-deletes the order (items cascade), restoring stock first
// unless the caller determined the order no longer holds any.
func (r *Orders) Delete(ctx context.Context, o *domain.Order, restore bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if restore {
		if err := restoreStock(ctx, tx, o.Items); err != nil {
			return err
		}
	}

	ct, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, o.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	evt := r.event(contracts.EventOrderDeleted, o, nil)
	if err := outbox.InsertTx(ctx, tx, evt.EventID, r.topic, o.ID, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func restoreStock(ctx context.Context, tx pgx.Tx, items []domain.OrderItem) error {
	for _, it := range items {
		_, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
			it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkPendingReminders emits one order.reminder event per order stuck in
// Pending longer than olderThan, at most once per order.
func (r *Orders) MarkPendingReminders(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE status=$1 AND created_at < $2 AND reminder_sent_at IS NULL`,
		domain.OrderPending, cutoff)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var stale []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return 0, err
		}
		stale = append(stale, o)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	sent := 0
	for _, o := range stale {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return sent, err
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET reminder_sent_at=now() WHERE id=$1 AND reminder_sent_at IS NULL`, o.ID)
		if err == nil {
			evt := r.event(contracts.EventOrderReminder, o, map[string]any{"pending_since": o.CreatedAt})
			err = outbox.InsertTx(ctx, tx, evt.EventID, r.topic, o.ID, evt)
		}
		if err == nil {
			err = tx.Commit(ctx)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return sent, err
		}
		sent++
	}
	return sent, nil
}
