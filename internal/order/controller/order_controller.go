package controller

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ordersvc/internal/domain"
	"ordersvc/internal/dto"
	apperrors "ordersvc/internal/errors"
	"ordersvc/internal/infrastructure/natsbus"
)

const (
	SubjectCreateOrder       = "createOrder"
	SubjectFindAllOrders     = "findAllOrders"
	SubjectFindOneOrder      = "findOneOrder"
	SubjectChangeOrderStatus = "changeOrderStatus"
	SubjectPaymentSucceeded  = "payment.succeeded"
)

type OrderUseCase interface {
	Create(ctx context.Context, items []dto.CreateOrderItem) (*dto.CreateOrderResponse, error)
	FindAll(ctx context.Context, req dto.OrderPaginationRequest) (*dto.OrderPageResponse, error)
	FindOne(ctx context.Context, id string) (*dto.OrderResponse, error)
	ChangeStatus(ctx context.Context, id string, status domain.Status) (*dto.OrderResponse, error)
	ReconcilePayment(ctx context.Context, event dto.PaidOrderEvent) error
}

type Registrar interface {
	Handle(subject string, handler natsbus.HandlerFunc) error
	Subscribe(subject string, handler natsbus.EventHandlerFunc) error
}

// OrderController is the bus-facing edge of the service: it decodes payloads,
// validates request shape, dispatches into the use case, and encodes replies
// including the {"error":{status,message}} failure envelope.
type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

// Register installs the subject dispatch table and the payment event
// subscription.
func (c *OrderController) Register(bus Registrar) error {
	handlers := map[string]natsbus.HandlerFunc{
		SubjectCreateOrder:       c.CreateOrder,
		SubjectFindAllOrders:     c.FindAllOrders,
		SubjectFindOneOrder:      c.FindOneOrder,
		SubjectChangeOrderStatus: c.ChangeOrderStatus,
	}

	for subject, handler := range handlers {
		if err := bus.Handle(subject, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(SubjectPaymentSucceeded, c.PaymentSucceeded)
}

func (c *OrderController) CreateOrder(ctx context.Context, data []byte) []byte {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateOrderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("invalid createOrder payload", zap.Error(err))
		return c.errorReply(apperrors.NewValidationError("payload must be valid JSON"), logger)
	}

	if err := validateCreateOrderRequest(req); err != nil {
		return c.errorReply(err, logger)
	}

	resp, err := c.useCase.Create(ctx, req.Items)
	if err != nil {
		return c.errorReply(err, logger)
	}

	return c.jsonReply(resp, logger)
}

func (c *OrderController) FindAllOrders(ctx context.Context, data []byte) []byte {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.OrderPaginationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("invalid findAllOrders payload", zap.Error(err))
		return c.errorReply(apperrors.NewValidationError("payload must be valid JSON"), logger)
	}

	if err := validatePaginationRequest(req); err != nil {
		return c.errorReply(err, logger)
	}

	resp, err := c.useCase.FindAll(ctx, req)
	if err != nil {
		return c.errorReply(err, logger)
	}

	return c.jsonReply(resp, logger)
}

func (c *OrderController) FindOneOrder(ctx context.Context, data []byte) []byte {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.FindOneOrderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("invalid findOneOrder payload", zap.Error(err))
		return c.errorReply(apperrors.NewValidationError("payload must be valid JSON"), logger)
	}

	if err := uuid.Validate(req.ID); err != nil {
		return c.errorReply(apperrors.NewValidationError("invalid order id", apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a valid UUID",
		}), logger)
	}

	resp, err := c.useCase.FindOne(ctx, req.ID)
	if err != nil {
		return c.errorReply(err, logger)
	}

	return c.jsonReply(resp, logger)
}

func (c *OrderController) ChangeOrderStatus(ctx context.Context, data []byte) []byte {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ChangeOrderStatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("invalid changeOrderStatus payload", zap.Error(err))
		return c.errorReply(apperrors.NewValidationError("payload must be valid JSON"), logger)
	}

	var details []apperrors.ValidationDetail
	if err := uuid.Validate(req.ID); err != nil {
		details = append(details, apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a valid UUID",
		})
	}
	if !domain.Status(req.Status).Valid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of PENDING, PAID, DELIVERED, CANCELLED",
		})
	}
	if len(details) > 0 {
		return c.errorReply(apperrors.NewValidationError("invalid changeOrderStatus request", details...), logger)
	}

	resp, err := c.useCase.ChangeStatus(ctx, req.ID, domain.Status(req.Status))
	if err != nil {
		return c.errorReply(err, logger)
	}

	return c.jsonReply(resp, logger)
}

// PaymentSucceeded consumes the payment confirmation event. Delivery is
// at-least-once and unordered; the use case and store absorb duplicates. A
// processing failure is only logged here, redelivery is the transport's job.
func (c *OrderController) PaymentSucceeded(ctx context.Context, data []byte) {
	var event dto.PaidOrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Warn("invalid payment.succeeded payload", zap.Error(err))
		return
	}

	if event.OrderID == "" || event.PaymentID == "" {
		c.logger.Warn("payment.succeeded event missing fields",
			zap.String("orderId", event.OrderID), zap.String("paymentId", event.PaymentID))
		return
	}

	if err := c.useCase.ReconcilePayment(ctx, event); err != nil {
		c.logger.Error("payment reconciliation failed",
			zap.String("orderId", event.OrderID), zap.Error(err))
	}
}

func validateCreateOrderRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	for idx, item := range req.Items {
		if item.ProductID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].productId",
				Message: "productId is required",
			})
		}
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be a positive integer",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid createOrder request", details...)
	}
	return nil
}

func validatePaginationRequest(req dto.OrderPaginationRequest) error {
	var details []apperrors.ValidationDetail

	if req.Page < 1 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "page",
			Message: "page must be >= 1",
		})
	}
	if req.Limit < 1 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "limit",
			Message: "limit must be >= 1",
		})
	}
	if req.Status != "" && !domain.Status(req.Status).Valid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of PENDING, PAID, DELIVERED, CANCELLED",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid findAllOrders request", details...)
	}
	return nil
}

func (c *OrderController) jsonReply(payload any, logger *zap.Logger) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to encode reply", zap.Error(err))
		return c.errorReply(apperrors.NewPersistenceError("encoding reply", err), logger)
	}
	return data
}

func (c *OrderController) errorReply(err error, logger *zap.Logger) []byte {
	status := statusFor(err)
	if status >= 500 {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	}

	resp := dto.ErrorResponse{Error: dto.RPCError{Status: status, Message: err.Error()}}
	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Error.Details = ve.Details
	}
	if pse, ok := apperrors.IsPaymentSessionError(err); ok {
		resp.Error.OrderID = pse.OrderID
	}

	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return []byte(`{"error":{"status":500,"message":"internal error"}}`)
	}
	return data
}

func statusFor(err error) int {
	switch {
	case isValidation(err), isProductNotFound(err):
		return 400
	case isNotFound(err):
		return 404
	case isInvalidTransition(err):
		return 409
	case isPaymentSession(err):
		return 502
	case isTimeout(err):
		return 504
	default:
		return 500
	}
}

func isValidation(err error) bool {
	_, ok := apperrors.IsValidationError(err)
	return ok
}

func isProductNotFound(err error) bool {
	_, ok := apperrors.IsProductNotFoundError(err)
	return ok
}

func isNotFound(err error) bool {
	_, ok := apperrors.IsNotFoundError(err)
	return ok
}

func isInvalidTransition(err error) bool {
	_, ok := apperrors.IsInvalidTransitionError(err)
	return ok
}

func isPaymentSession(err error) bool {
	_, ok := apperrors.IsPaymentSessionError(err)
	return ok
}

func isTimeout(err error) bool {
	_, ok := apperrors.IsTimeoutError(err)
	return ok
}
