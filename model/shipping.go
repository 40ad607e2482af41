package model

import "database/sql"

type Shipping struct {
	ID             int64        `db:"id" json:"id"`
	OrderID        int64        `db:"order_id" json:"order_id"`
	CustomerID     int64        `db:"customer_id" json:"customer_id"`
	TrackingNumber string       `db:"tracking_number" json:"tracking_number"`
	Address        string       `db:"address" json:"address"`
	ShippingMethod string       `db:"shipping_method" json:"shipping_method"`
	ShippedAt      sql.NullTime `db:"shipped_at" json:"-"`
	DeliveredAt    sql.NullTime `db:"delivered_at" json:"-"`
	Status         string       `db:"status" json:"status"`
}
