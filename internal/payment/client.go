package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ordersvc/internal/dto"
	apperrors "ordersvc/internal/errors"
)

const subjectCreatePaymentSession = "create.payment.session"

type Requester interface {
	Request(ctx context.Context, subject string, payload any, out any) error
}

// Client requests checkout sessions from the remote payments service. The
// order must already be durably persisted before calling; a failure here
// leaves it PENDING and retryable, never undiscoverable.
type Client struct {
	bus     Requester
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(bus Requester, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		bus:     bus,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) CreateSession(ctx context.Context, orderID, currency string, items []dto.SessionItem) (*dto.PaymentSession, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := dto.PaymentSessionRequest{
		OrderID:  orderID,
		Currency: currency,
		Items:    items,
	}

	var session dto.PaymentSession
	if err := c.bus.Request(reqCtx, subjectCreatePaymentSession, req, &session); err != nil {
		c.logger.Warn("payment session creation failed",
			zap.String("orderId", orderID), zap.Error(err))
		return nil, apperrors.NewPaymentSessionError("creating payment session", orderID, err)
	}

	return &session, nil
}
