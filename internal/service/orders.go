// Package service holds the business logic between the HTTP layer and the
// repositories. Services receive the authenticated identity explicitly;
// nothing here reads ambient request state.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nazeru/storefront-api/internal/domain"
	"github.com/nazeru/storefront-api/internal/pricing"
	"github.com/nazeru/storefront-api/internal/store"
	"github.com/nazeru/storefront-api/pkg/contracts"
	"github.com/nazeru/storefront-api/pkg/logging"
)

type ProductReader interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *domain.Order, idemKey string) error
	IDByIdempotencyKey(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f store.OrderFilter) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, o *domain.Order, eventType string) error
	CancelAndRestore(ctx context.Context, o *domain.Order) error
	Delete(ctx context.Context, o *domain.Order, restore bool) error
}

type Orders struct {
	store    OrderStore
	products ProductReader
}

func NewOrders(s OrderStore, p ProductReader) *Orders {
	return &Orders{store: s, products: p}
}

type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput       `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	IdempotencyKey  string                 `json:"-"`
}

func (in *CreateOrderInput) validate() error {
	if len(in.Items) == 0 {
		return domain.Invalid("items", "must not be empty")
	}
	for _, it := range in.Items {
		if it.ProductID == "" {
			return domain.Invalid("items.product_id", "is required")
		}
		if it.Quantity <= 0 {
			return domain.Invalid("items.quantity", "must be positive")
		}
	}
	addr := in.ShippingAddress
	switch {
	case addr.Street == "":
		return domain.Invalid("shipping_address.street", "is required")
	case addr.City == "":
		return domain.Invalid("shipping_address.city", "is required")
	case addr.State == "":
		return domain.Invalid("shipping_address.state", "is required")
	case addr.ZipCode == "":
		return domain.Invalid("shipping_address.zip_code", "is required")
	case addr.Phone == "":
		return domain.Invalid("shipping_address.phone", "is required")
	}
	return nil
}

// Create validates stock for every line item, snapshots product state into
// the order, prices it and persists order plus stock decrements atomically.
// A repeated Idempotency-Key returns the previously created order.
func (s *Orders) Create(ctx context.Context, ident domain.Identity, in CreateOrderInput) (*domain.Order, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}
	method, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, false, domain.Invalid("payment_method", "unknown payment method")
	}
	if in.ShippingAddress.Country == "" {
		in.ShippingAddress.Country = "India"
	}

	if in.IdempotencyKey != "" {
		if existing, err := s.replay(ctx, in.IdempotencyKey); err == nil {
			return existing, true, nil
		}
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	lines := make([]pricing.Line, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, false, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrProductNotFound)
			}
			return nil, false, err
		}
		if p.Stock < it.Quantity {
			return nil, false, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrInsufficientStock)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
		lines = append(lines, pricing.Line{Price: p.Price, Quantity: it.Quantity})
	}

	q := pricing.Compute(lines)
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          ident.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		Subtotal:        q.Subtotal,
		ShippingPrice:   q.ShippingPrice,
		TaxPrice:        q.TaxPrice,
		Total:           q.Total,
		Status:          domain.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, order, in.IdempotencyKey); err != nil {
		if errors.Is(err, domain.ErrIdempotencyReplay) && in.IdempotencyKey != "" {
			if existing, rerr := s.replay(ctx, in.IdempotencyKey); rerr == nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	logging.Log(logging.Fields{Service: "orders", OrderID: order.ID, UserID: ident.UserID, Step: "create", Status: string(order.Status)})
	return order, false, nil
}

func (s *Orders) replay(ctx context.Context, key string) (*domain.Order, error) {
	id, err := s.store.IDByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Get returns the order to its owner or an admin.
func (s *Orders) Get(ctx context.Context, ident domain.Identity, id string) (*domain.Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != ident.UserID && !ident.Admin() {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func (s *Orders) ListMine(ctx context.Context, ident domain.Identity, page, limit int) ([]domain.Order, int, error) {
	return s.store.List(ctx, store.OrderFilter{UserID: ident.UserID, Page: page, Limit: limit})
}

// ListAll is the admin listing, optionally filtered by status.
func (s *Orders) ListAll(ctx context.Context, status string, page, limit int) ([]domain.Order, int, error) {
	if status != "" {
		st, ok := domain.ParseOrderStatus(status)
		if !ok {
			return nil, 0, domain.Invalid("status", "unknown order status")
		}
		status = string(st)
	}
	return s.store.List(ctx, store.OrderFilter{Status: status, Page: page, Limit: limit})
}

var statusEvents = map[domain.OrderStatus]string{
	domain.OrderPaid:      contracts.EventOrderPaid,
	domain.OrderShipped:   contracts.EventOrderShipped,
	domain.OrderDelivered: contracts.EventOrderDelivered,
}

// UpdateStatus advances an order through the status machine. Direct
// transitions to Cancelled are rejected here; cancellation goes through
// Cancel (or admin Delete), which owns stock restoration.
func (s *Orders) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.Invalid("status", "unknown order status")
	}

	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == domain.OrderCancelled {
		return nil, fmt.Errorf("use the cancel operation: %w", domain.ErrInvalidTransition)
	}
	if !o.Status.CanTransition(st) {
		return nil, fmt.Errorf("%s to %s: %w", o.Status, st, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	o.Status = st
	switch st {
	case domain.OrderPaid:
		o.IsPaid = true
		o.PaidAt = &now
	case domain.OrderDelivered:
		o.IsDelivered = true
		o.DeliveredAt = &now
	}

	if err := s.store.UpdateStatus(ctx, o, statusEvents[st]); err != nil {
		return nil, err
	}
	logging.Log(logging.Fields{Service: "orders", OrderID: o.ID, Step: "status_update", Status: string(st)})
	return o, nil
}

// Cancel is owner-only. Shipped and Delivered orders cannot be cancelled;
// cancelling twice is an error, not a no-op. Success restores every line
// item's stock.
func (s *Orders) Cancel(ctx context.Context, ident domain.Identity, id string) (*domain.Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != ident.UserID {
		return nil, domain.ErrForbidden
	}
	if o.Status == domain.OrderCancelled {
		return nil, domain.ErrOrderCancelled
	}
	if o.Status == domain.OrderShipped || o.Status == domain.OrderDelivered {
		return nil, fmt.Errorf("%s order: %w", o.Status, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	o.Status = domain.OrderCancelled
	o.CancelledAt = &now
	if err := s.store.CancelAndRestore(ctx, o); err != nil {
		return nil, err
	}
	logging.Log(logging.Fields{Service: "orders", OrderID: o.ID, UserID: ident.UserID, Step: "cancel", Status: string(o.Status)})
	return o, nil
}

// Delete hard-deletes an order (admin). Stock is restored first unless the
// order was Delivered (stock already consumed) or Cancelled (already
// restored).
func (s *Orders) Delete(ctx context.Context, id string) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	restore := o.Status != domain.OrderDelivered && o.Status != domain.OrderCancelled
	if err := s.store.Delete(ctx, o, restore); err != nil {
		return err
	}
	logging.Log(logging.Fields{Service: "orders", OrderID: o.ID, Step: "delete", Status: "deleted"})
	return nil
}
