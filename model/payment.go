package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type PaymentProvider string

const (
	ProviderGCash      PaymentProvider = "GCash"
	ProviderPayMaya    PaymentProvider = "PayMaya"
	ProviderCreditCard PaymentProvider = "CreditCard"
	ProviderCOD        PaymentProvider = "CashOnDelivery"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentConfirmed PaymentStatus = "Confirmed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCancelled PaymentStatus = "Cancelled"
	PaymentRefunded  PaymentStatus = "Refunded"
)

// Payment records the final state reported by an external provider.
// Authorization and capture happen outside this system.
type Payment struct {
	ID            int64           `db:"id"`
	OrderID       int64           `db:"order_id"`
	Provider      PaymentProvider `db:"provider"`
	TransactionID string          `db:"transaction_id"`
	Amount        decimal.Decimal `db:"amount"`
	Status        PaymentStatus   `db:"status"`
	CreatedAt     sql.NullTime    `db:"created_at"`
}
