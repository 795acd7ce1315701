package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"ordersvc/internal/config"
	apperrors "ordersvc/internal/errors"
)

// Bus wraps the NATS connection with JSON request/reply helpers and
// queue-group subscriptions. Request handlers and event handlers both run on
// their own goroutine, so unrelated messages never serialize behind each
// other.
type Bus struct {
	nc     *nats.Conn
	queue  string
	logger *zap.Logger
	subs   []*nats.Subscription
}

// HandlerFunc produces the raw reply payload for a request subject. The
// handler owns payload decoding and error encoding.
type HandlerFunc func(ctx context.Context, data []byte) []byte

// EventHandlerFunc consumes a fire-and-forget event. No reply is sent.
type EventHandlerFunc func(ctx context.Context, data []byte)

// RequestError is a structured failure returned by a remote responder,
// decoded from its {"error":{status,message}} reply envelope.
type RequestError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error *RequestError `json:"error"`
}

func Connect(cfg config.NATSConfig, logger *zap.Logger) (*Bus, error) {
	var nc *nats.Conn
	var err error

	for attempt := 1; attempt <= 3; attempt++ {
		nc, err = nats.Connect(cfg.URL,
			nats.Name("orders-service"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				logger.Warn("nats disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
			}),
		)
		if err == nil {
			logger.Info("connected to nats", zap.String("url", cfg.URL))
			return &Bus{nc: nc, queue: cfg.QueueGroup, logger: logger}, nil
		}

		logger.Warn("failed to connect to nats", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("connecting to nats after retries: %w", err)
}

// Request sends a JSON request and decodes the JSON reply into out. A remote
// error envelope is returned as *RequestError; an exceeded deadline is
// returned as a retryable TimeoutError.
func (b *Bus) Request(ctx context.Context, subject string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request for %s: %w", subject, err)
	}

	msg, err := b.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return mapRequestError(subject, err)
	}

	// Error replies are objects; success replies may be arrays, so the
	// envelope probe only applies to object payloads.
	if len(msg.Data) > 0 && msg.Data[0] == '{' {
		var envelope errorEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err == nil && envelope.Error != nil {
			return envelope.Error
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("decoding reply from %s: %w", subject, err)
	}

	return nil
}

// mapRequestError classifies a failed outbound request. An exceeded bound
// becomes a retryable TimeoutError; anything else stays a plain transport
// error.
func mapRequestError(subject string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
		return apperrors.NewTimeoutError(fmt.Sprintf("request to %s timed out", subject), err)
	}
	return fmt.Errorf("request to %s: %w", subject, err)
}

// Handle registers a request/reply handler on the bus queue group.
func (b *Bus) Handle(subject string, handler HandlerFunc) error {
	sub, err := b.nc.QueueSubscribe(subject, b.queue, func(msg *nats.Msg) {
		go func() {
			reply := handler(context.Background(), msg.Data)
			if msg.Reply == "" {
				return
			}
			if err := msg.Respond(reply); err != nil {
				b.logger.Warn("failed to reply", zap.String("subject", subject), zap.Error(err))
			}
		}()
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	b.subs = append(b.subs, sub)
	b.logger.Info("handler registered", zap.String("subject", subject), zap.String("queue", b.queue))
	return nil
}

// Subscribe registers a fire-and-forget event handler on the bus queue group.
func (b *Bus) Subscribe(subject string, handler EventHandlerFunc) error {
	sub, err := b.nc.QueueSubscribe(subject, b.queue, func(msg *nats.Msg) {
		go handler(context.Background(), msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	b.subs = append(b.subs, sub)
	b.logger.Info("event subscription registered", zap.String("subject", subject), zap.String("queue", b.queue))
	return nil
}

func (b *Bus) IsConnected() bool {
	return b.nc != nil && b.nc.IsConnected()
}

// Drain unsubscribes and lets in-flight handlers finish before closing.
func (b *Bus) Drain() error {
	if b.nc == nil {
		return nil
	}
	return b.nc.Drain()
}

func (b *Bus) Close() {
	if b.nc != nil && !b.nc.IsClosed() {
		b.nc.Close()
		b.logger.Info("nats connection closed")
	}
}
