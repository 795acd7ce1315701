package controller

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersvc/internal/domain"
	"ordersvc/internal/dto"
	apperrors "ordersvc/internal/errors"
)

type mockOrderUseCase struct {
	CreateFunc           func(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error)
	FindAllFunc          func(ctx context.Context, req dto.OrderPaginationRequest) (*dto.OrderPageResponse, error)
	FindOneFunc          func(ctx context.Context, id string) (*dto.OrderResponse, error)
	ChangeStatusFunc     func(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error)
	ReconcilePaymentFunc func(ctx context.Context, event dto.PaidOrderEvent) error
}

func (m *mockOrderUseCase) Create(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
	return m.CreateFunc(ctx, items)
}

func (m *mockOrderUseCase) FindAll(ctx context.Context, req dto.OrderPaginationRequest) (*dto.OrderPageResponse, error) {
	return m.FindAllFunc(ctx, req)
}

func (m *mockOrderUseCase) FindOne(ctx context.Context, id string) (*dto.OrderResponse, error) {
	return m.FindOneFunc(ctx, id)
}

func (m *mockOrderUseCase) ChangeStatus(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error) {
	return m.ChangeStatusFunc(ctx, id, status)
}

func (m *mockOrderUseCase) ReconcilePayment(ctx context.Context, event dto.PaidOrderEvent) error {
	return m.ReconcilePaymentFunc(ctx, event)
}

func decodeError(t *testing.T, reply []byte) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(reply, &resp))
	require.NotZero(t, resp.Error.Status, "expected an error envelope, got: %s", reply)
	return resp
}

const testOrderID = "0d9415d1-6f3a-4be2-9c04-24f8b0e2f780"

func TestCreateOrder_InvalidJSON(t *testing.T) {
	c := NewOrderController(&mockOrderUseCase{}, zap.NewNop())

	reply := c.CreateOrder(context.Background(), []byte(`{not json`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
}

func TestCreateOrder_EmptyItemsRejected(t *testing.T) {
	called := false
	uc := &mockOrderUseCase{
		CreateFunc: func(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
			called = true
			return nil, nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.CreateOrder(context.Background(), []byte(`{"items":[]}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
	assert.NotEmpty(t, resp.Error.Details)
	assert.False(t, called)
}

func TestCreateOrder_Success(t *testing.T) {
	uc := &mockOrderUseCase{
		CreateFunc: func(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
			require.Len(t, items, 1)
			assert.Equal(t, "p1", items[0].ProductID)
			assert.Equal(t, 2, items[0].Quantity)
			return &dto.CreateOrderResponse{
				Order:          dto.OrderResponse{ID: testOrderID, Status: "PENDING", TotalAmount: 10, TotalItems: 2},
				PaymentSession: dto.PaymentSession{URL: "https://pay.example/cs_1"},
			}, nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.CreateOrder(context.Background(), []byte(`{"items":[{"productId":"p1","quantity":2}]}`))

	var resp dto.CreateOrderResponse
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.Equal(t, testOrderID, resp.Order.ID)
	assert.Equal(t, "https://pay.example/cs_1", resp.PaymentSession.URL)
}

func TestCreateOrder_ProductNotFoundMapsTo400(t *testing.T) {
	uc := &mockOrderUseCase{
		CreateFunc: func(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
			return nil, apperrors.NewProductNotFoundError("some products were not found: [p9]", "p9")
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.CreateOrder(context.Background(), []byte(`{"items":[{"productId":"p9","quantity":1}]}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
}

func TestCreateOrder_PaymentSessionFailureMapsTo502(t *testing.T) {
	uc := &mockOrderUseCase{
		CreateFunc: func(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error) {
			return nil, apperrors.NewPaymentSessionError("creating payment session", testOrderID, nil)
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.CreateOrder(context.Background(), []byte(`{"items":[{"productId":"p1","quantity":1}]}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 502, resp.Error.Status)
	// The order is persisted and PENDING; the reply must tell the caller
	// which id to retry the session against.
	assert.Equal(t, testOrderID, resp.Error.OrderID)
	assert.Contains(t, resp.Error.Message, testOrderID)
}

func TestFindOneOrder_InvalidUUID(t *testing.T) {
	c := NewOrderController(&mockOrderUseCase{}, zap.NewNop())

	reply := c.FindOneOrder(context.Background(), []byte(`{"id":"not-a-uuid"}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
}

func TestFindOneOrder_NotFoundMapsTo404(t *testing.T) {
	uc := &mockOrderUseCase{
		FindOneFunc: func(ctx context.Context, id string) (*dto.OrderResponse, error) {
			return nil, apperrors.NewNotFoundError("order with id " + id + " not found")
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.FindOneOrder(context.Background(), []byte(`{"id":"`+testOrderID+`"}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 404, resp.Error.Status)
}

func TestFindOneOrder_UpstreamTimeoutMapsTo504(t *testing.T) {
	uc := &mockOrderUseCase{
		FindOneFunc: func(ctx context.Context, id string) (*dto.OrderResponse, error) {
			return nil, apperrors.NewTimeoutError("request to validate_product timed out", context.DeadlineExceeded)
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.FindOneOrder(context.Background(), []byte(`{"id":"`+testOrderID+`"}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 504, resp.Error.Status)
}

func TestFindAllOrders_RejectsBadPagination(t *testing.T) {
	c := NewOrderController(&mockOrderUseCase{}, zap.NewNop())

	reply := c.FindAllOrders(context.Background(), []byte(`{"page":0,"limit":0}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
	assert.Len(t, resp.Error.Details, 2)
}

func TestFindAllOrders_RejectsUnknownStatus(t *testing.T) {
	c := NewOrderController(&mockOrderUseCase{}, zap.NewNop())

	reply := c.FindAllOrders(context.Background(), []byte(`{"status":"SHIPPED","page":1,"limit":10}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
}

func TestFindAllOrders_Success(t *testing.T) {
	uc := &mockOrderUseCase{
		FindAllFunc: func(ctx context.Context, req dto.OrderPaginationRequest) (*dto.OrderPageResponse, error) {
			assert.Equal(t, "PENDING", req.Status)
			return &dto.OrderPageResponse{
				Data:     []dto.OrderResponse{{ID: testOrderID, Status: "PENDING"}},
				Metadata: dto.PageMetadata{Total: 25, Page: 2, LastPage: 3},
			}, nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.FindAllOrders(context.Background(), []byte(`{"status":"PENDING","page":2,"limit":10}`))

	var resp dto.OrderPageResponse
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 25, resp.Metadata.Total)
	assert.Equal(t, 3, resp.Metadata.LastPage)
}

func TestChangeOrderStatus_RejectsUnknownStatus(t *testing.T) {
	c := NewOrderController(&mockOrderUseCase{}, zap.NewNop())

	reply := c.ChangeOrderStatus(context.Background(), []byte(`{"id":"`+testOrderID+`","status":"SHIPPED"}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 400, resp.Error.Status)
}

func TestChangeOrderStatus_IllegalTransitionMapsTo409(t *testing.T) {
	uc := &mockOrderUseCase{
		ChangeStatusFunc: func(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error) {
			return nil, apperrors.NewInvalidTransitionError("cannot move order from PAID to PENDING")
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.ChangeOrderStatus(context.Background(), []byte(`{"id":"`+testOrderID+`","status":"PENDING"}`))

	resp := decodeError(t, reply)
	assert.Equal(t, 409, resp.Error.Status)
}

func TestChangeOrderStatus_Success(t *testing.T) {
	uc := &mockOrderUseCase{
		ChangeStatusFunc: func(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error) {
			assert.Equal(t, testOrderID, id)
			assert.Equal(t, domain.StatusCancelled, status)
			return &dto.OrderResponse{ID: id, Status: string(status)}, nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	reply := c.ChangeOrderStatus(context.Background(), []byte(`{"id":"`+testOrderID+`","status":"CANCELLED"}`))

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(reply, &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
}

func TestPaymentSucceeded_DispatchesReconciliation(t *testing.T) {
	var got dto.PaidOrderEvent
	uc := &mockOrderUseCase{
		ReconcilePaymentFunc: func(ctx context.Context, event dto.PaidOrderEvent) error {
			got = event
			return nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	c.PaymentSucceeded(context.Background(),
		[]byte(`{"orderId":"`+testOrderID+`","paymentId":"ch_3abc","receiptUrl":"https://receipts.example/r1"}`))

	assert.Equal(t, testOrderID, got.OrderID)
	assert.Equal(t, "ch_3abc", got.PaymentID)
	assert.Equal(t, "https://receipts.example/r1", got.ReceiptURL)
}

func TestPaymentSucceeded_MissingFieldsDropped(t *testing.T) {
	called := false
	uc := &mockOrderUseCase{
		ReconcilePaymentFunc: func(ctx context.Context, event dto.PaidOrderEvent) error {
			called = true
			return nil
		},
	}
	c := NewOrderController(uc, zap.NewNop())

	c.PaymentSucceeded(context.Background(), []byte(`{"orderId":""}`))
	c.PaymentSucceeded(context.Background(), []byte(`not json`))

	assert.False(t, called)
}
