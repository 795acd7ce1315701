package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusPaid.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("SHIPPED").Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("pending").Valid())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusPaid, StatusDelivered, true},
		{StatusPaid, StatusPending, false},
		{StatusPaid, StatusCancelled, false},
		{StatusDelivered, StatusPaid, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestOrderItem_Subtotal(t *testing.T) {
	item := OrderItem{ProductID: "p1", Quantity: 3, Price: 2.50}
	assert.Equal(t, 7.50, item.Subtotal())
}

func TestTotals(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p1", Quantity: 2, Price: 5},
		{ProductID: "p2", Quantity: 1, Price: 12.99},
	}

	amount, count := Totals(items)
	assert.InDelta(t, 22.99, amount, 1e-9)
	assert.Equal(t, 3, count)
}

func TestTotals_Empty(t *testing.T) {
	amount, count := Totals(nil)
	assert.Equal(t, 0.0, amount)
	assert.Equal(t, 0, count)
}

func TestOrder_Creation(t *testing.T) {
	now := time.Now()
	ref := "ch_3abc"

	order := Order{
		ID:               "0d9415d1-6f3a-4be2-9c04-24f8b0e2f780",
		Status:           StatusPaid,
		TotalAmount:      22.99,
		TotalItems:       3,
		Paid:             true,
		PaidAt:           &now,
		PaymentReference: &ref,
		Items: []OrderItem{
			{ProductID: "p1", Quantity: 2, Price: 5},
			{ProductID: "p2", Quantity: 1, Price: 12.99},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	assert.Equal(t, StatusPaid, order.Status)
	assert.True(t, order.Paid)
	assert.Equal(t, &ref, order.PaymentReference)
	assert.Len(t, order.Items, 2)
	assert.Nil(t, order.Receipt)
}
