package order

import (
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is published through the outbox after a checkout
// commits.
type OrderCreatedEvent struct {
	OrderID    int64              `json:"order_id"`
	CustomerID int64              `json:"customer_id"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Items      []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// PaymentEvent is what an external payment provider reports back.
// TransactionID is the dedupe key.
type PaymentEvent struct {
	OrderID       int64                 `json:"order_id"`
	Provider      model.PaymentProvider `json:"provider"`
	TransactionID string                `json:"transaction_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Status        model.PaymentStatus   `json:"status"`
}
