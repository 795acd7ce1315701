package domain

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status change is legal.
// PENDING may move to PAID or CANCELLED; PAID may move to DELIVERED.
// DELIVERED and CANCELLED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusDelivered
	}
	return false
}

type Order struct {
	ID               string
	Status           Status
	TotalAmount      float64
	TotalItems       int
	Paid             bool
	PaidAt           *time.Time
	PaymentReference *string
	Items            []OrderItem
	Receipt          *Receipt
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is a price snapshot: Price is the unit price captured at
// creation time, never refreshed from the catalog afterward.
type OrderItem struct {
	ProductID string
	Quantity  int
	Price     float64
}

func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

type Receipt struct {
	ID         uint
	OrderID    string
	ReceiptURL string
	CreatedAt  time.Time
}

// Totals sums amount and quantity over the items.
func Totals(items []OrderItem) (totalAmount float64, totalItems int) {
	for _, item := range items {
		totalAmount += item.Subtotal()
		totalItems += item.Quantity
	}
	return totalAmount, totalItems
}
