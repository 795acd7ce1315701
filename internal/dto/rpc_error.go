package dto

import "ordersvc/internal/errors"

// RPCError is the wire form of a structured failure, carried in an
// {"error":{...}} reply envelope.
type RPCError struct {
	Status  int                       `json:"status"`
	Message string                    `json:"message"`
	Details []errors.ValidationDetail `json:"details,omitempty"`
	// OrderID is set on payment session failures: the order is already
	// persisted and PENDING, and this is the id to retry the session against.
	OrderID string `json:"orderId,omitempty"`
}

type ErrorResponse struct {
	Error RPCError `json:"error"`
}
