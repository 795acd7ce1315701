package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ordersvc/internal/domain"
	"ordersvc/internal/dto"
	apperrors "ordersvc/internal/errors"
	"ordersvc/internal/order/repository"
)

type ProductValidator interface {
	Validate(ctx context.Context, productIDs []string) ([]dto.Product, error)
}

type PaymentInitiator interface {
	CreateSession(ctx context.Context, orderID, currency string, items []dto.SessionItem) (*dto.PaymentSession, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindPage(ctx context.Context, status domain.Status, page, limit int) (*repository.OrderPage, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.Status) (*domain.Order, error)
	ReconcilePayment(ctx context.Context, orderID, paymentRef, receiptURL string) (*domain.Order, error)
}

// OrderUseCase orchestrates the order lifecycle across the catalog, the
// store, and the payments service. It keeps no state of its own; every read
// goes back to the store.
type OrderUseCase struct {
	store    OrderStore
	products ProductValidator
	payments PaymentInitiator
	currency string
	logger   *zap.Logger
}

func NewOrderUseCase(
	store OrderStore,
	products ProductValidator,
	payments PaymentInitiator,
	currency string,
	logger *zap.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		store:    store,
		products: products,
		payments: payments,
		currency: currency,
		logger:   logger,
	}
}

// Create validates the requested products against the catalog, persists the
// priced order atomically, then requests a payment session. The store write
// is the durability point: a validation failure persists nothing, a session
// failure leaves the order PENDING and discoverable so the caller can retry
// the session out of band.
func (uc *OrderUseCase) Create(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := uc.products.Validate(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	priceByID := make(map[string]float64, len(products))
	nameByID := make(map[string]string, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
		nameByID[p.ID] = p.Name
	}

	orderItems := make([]domain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     priceByID[item.ProductID],
		}
	}

	totalAmount, totalItems := domain.Totals(orderItems)

	order := &domain.Order{
		ID:          uuid.NewString(),
		Status:      domain.StatusPending,
		TotalAmount: totalAmount,
		TotalItems:  totalItems,
		Items:       orderItems,
	}

	persisted, err := uc.store.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order created",
		zap.String("orderId", persisted.ID),
		zap.Float64("totalAmount", persisted.TotalAmount),
		zap.Int("totalItems", persisted.TotalItems))

	sessionItems := make([]dto.SessionItem, len(persisted.Items))
	for i, item := range persisted.Items {
		sessionItems[i] = dto.SessionItem{
			Name:     nameByID[item.ProductID],
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}

	session, err := uc.payments.CreateSession(ctx, persisted.ID, uc.currency, sessionItems)
	if err != nil {
		uc.logger.Warn("order persisted but payment session failed; order stays PENDING",
			zap.String("orderId", persisted.ID), zap.Error(err))
		return nil, err
	}

	return &dto.CreateOrderResponse{
		Order:          dto.NewOrderResponse(persisted, nameByID),
		PaymentSession: *session,
	}, nil
}

// FindAll returns one page of orders, optionally filtered by status.
func (uc *OrderUseCase) FindAll(ctx context.Context, req dto.OrderPaginationRequest) (*dto.OrderPageResponse, error) {
	page, err := uc.store.FindPage(ctx, domain.Status(req.Status), req.Page, req.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]dto.OrderResponse, 0, len(page.Orders))
	for i := range page.Orders {
		data = append(data, dto.NewOrderResponse(&page.Orders[i], nil))
	}

	return &dto.OrderPageResponse{
		Data: data,
		Metadata: dto.PageMetadata{
			Total:    page.Total,
			Page:     page.Page,
			LastPage: page.LastPage,
		},
	}, nil
}

// FindOne fetches the aggregate and re-resolves product names from the
// catalog; names are not stored. A product the catalog can no longer resolve
// fails the read rather than silently dropping the item.
func (uc *OrderUseCase) FindOne(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	if len(order.Items) > 0 {
		productIDs := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}

		products, err := uc.products.Validate(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			names[p.ID] = p.Name
		}
	}

	resp := dto.NewOrderResponse(order, names)
	return &resp, nil
}

// ChangeStatus applies a manual status change. Requesting the current status
// is an idempotent no-op; an illegal transition fails and leaves the order
// untouched.
func (uc *OrderUseCase) ChangeStatus(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error) {
	order, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == status {
		resp := dto.NewOrderResponse(order, nil)
		return &resp, nil
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("cannot move order %s from %s to %s", id, order.Status, status))
	}

	updated, err := uc.store.UpdateStatus(ctx, id, order.Status, status)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order status changed",
		zap.String("orderId", id),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)))

	resp := dto.NewOrderResponse(updated, nil)
	return &resp, nil
}

// ReconcilePayment applies a payment confirmation. The store makes it
// idempotent, so redelivered events are safe; a failure is returned to the
// listener so the transport redelivers.
func (uc *OrderUseCase) ReconcilePayment(ctx context.Context, event dto.PaidOrderEvent) error {
	order, err := uc.store.ReconcilePayment(ctx, event.OrderID, event.PaymentID, event.ReceiptURL)
	if err != nil {
		return err
	}

	if order.Status == domain.StatusCancelled && !order.Paid {
		uc.logger.Warn("payment confirmation for cancelled order dropped",
			zap.String("orderId", event.OrderID),
			zap.String("paymentId", event.PaymentID))
		return nil
	}

	uc.logger.Info("order paid",
		zap.String("orderId", event.OrderID),
		zap.String("paymentId", event.PaymentID))
	return nil
}
