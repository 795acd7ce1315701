package dto

// PaidOrderEvent is the payment.succeeded payload. Delivery is
// at-least-once; consumers must tolerate duplicates.
type PaidOrderEvent struct {
	OrderID    string `json:"orderId"`
	PaymentID  string `json:"paymentId"`
	ReceiptURL string `json:"receiptUrl"`
}
