package dto

type CreateOrderResponse struct {
	Order          OrderResponse  `json:"order"`
	PaymentSession PaymentSession `json:"paymentSession"`
}
