package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
	OrderFailed    OrderStatus = "Failed"
	OrderReturned  OrderStatus = "Returned"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled, OrderFailed},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered, OrderReturned},
}

// CanTransition reports whether an order in status s may move to next.
// Delivered, Cancelled, Failed and Returned are terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered,
		OrderCancelled, OrderFailed, OrderReturned:
		return true
	}
	return false
}

type OrderDetails struct {
	ID         int64           `db:"id"`
	CustomerID int64           `db:"customer_id"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     OrderStatus     `db:"status"`
	DiscountID sql.NullInt64   `db:"discount_id"`
	CreatedAt  sql.NullTime    `db:"created_at"`
	UpdatedAt  sql.NullTime    `db:"updated_at"`
}

// OrderItem.Price is the unit price captured at checkout. It is a
// historical fact and is never re-derived from the live product price.
type OrderItem struct {
	ID        int64           `db:"id"`
	OrderID   int64           `db:"order_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt sql.NullTime    `db:"created_at"`
}

type OrderReport struct {
	ID         int64        `db:"id" json:"id"`
	OrderID    int64        `db:"order_id" json:"order_id"`
	ReportText string       `db:"report_text" json:"report_text"`
	CreatedAt  sql.NullTime `db:"created_at" json:"-"`
}
