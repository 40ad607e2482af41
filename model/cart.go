package model

import "database/sql"

type Cart struct {
	ID         int64        `db:"id"`
	CustomerID int64        `db:"customer_id"`
	CreatedAt  sql.NullTime `db:"created_at"`
}

// CartItem holds no price. Totals are always recomputed from the live
// product price, so pre-checkout price changes show up immediately.
type CartItem struct {
	ID        int64        `db:"id"`
	CartID    int64        `db:"cart_id"`
	ProductID int64        `db:"product_id"`
	Quantity  int          `db:"quantity"`
	CreatedAt sql.NullTime `db:"created_at"`
}
