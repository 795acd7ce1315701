package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ordersvc/internal/dto"
	apperrors "ordersvc/internal/errors"
	"ordersvc/internal/infrastructure/natsbus"
)

const subjectValidateProducts = "validate_product"

// Requester is the request/reply slice of the bus the client needs.
type Requester interface {
	Request(ctx context.Context, subject string, payload any, out any) error
}

// Client resolves product ids against the remote catalog service. Prices are
// fetched fresh on every call; nothing is cached.
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

// Validate returns an authoritative record for every requested id. If any id
// cannot be resolved, or the catalog returns a malformed record, the whole
// call fails with ProductNotFoundError; partial success is never returned.
func (c *Client) Validate(ctx context.Context, productIDs []string) ([]dto.Product, error) {
	unique := dedupe(productIDs)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var products []dto.Product
	err := c.bus.Request(reqCtx, subjectValidateProducts, unique, &products)
	if err != nil {
		var remote *natsbus.RequestError
		if errors.As(err, &remote) {
			c.logger.Warn("catalog rejected product validation",
				zap.Strings("productIds", unique), zap.String("reason", remote.Message))
			return nil, apperrors.NewProductNotFoundError(remote.Message, unique...)
		}
		return nil, err
	}

	byID := make(map[string]dto.Product, len(products))
	for _, p := range products {
		if p.ID == "" || p.Name == "" || p.Price <= 0 {
			return nil, apperrors.NewProductNotFoundError(
				fmt.Sprintf("catalog returned a malformed record for product %q", p.ID), p.ID)
		}
		byID[p.ID] = p
	}

	var missing []string
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewProductNotFoundError(
			fmt.Sprintf("some products were not found: %v", missing), missing...)
	}

	return products, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
