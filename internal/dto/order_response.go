package dto

import (
	"time"

	"ordersvc/internal/domain"
)

type OrderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	TotalAmount      float64             `json:"totalAmount"`
	TotalItems       int                 `json:"totalItems"`
	Paid             bool                `json:"paid"`
	PaidAt           *time.Time          `json:"paidAt,omitempty"`
	PaymentReference *string             `json:"paymentReference,omitempty"`
	Items            []OrderItemResponse `json:"items,omitempty"`
	Receipt          *ReceiptResponse    `json:"receipt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type OrderItemResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name,omitempty"`
}

type ReceiptResponse struct {
	ReceiptURL string `json:"receiptUrl"`
}

// NewOrderResponse maps the aggregate to its wire shape. Product names are
// attached from the catalog lookup when provided; they are never stored.
func NewOrderResponse(order *domain.Order, names map[string]string) OrderResponse {
	resp := OrderResponse{
		ID:               order.ID,
		Status:           string(order.Status),
		TotalAmount:      order.TotalAmount,
		TotalItems:       order.TotalItems,
		Paid:             order.Paid,
		PaidAt:           order.PaidAt,
		PaymentReference: order.PaymentReference,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}

	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Name:      names[item.ProductID],
		})
	}

	if order.Receipt != nil {
		resp.Receipt = &ReceiptResponse{ReceiptURL: order.Receipt.ReceiptURL}
	}

	return resp
}
