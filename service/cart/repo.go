package cart

import (
	"context"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
)

type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
	GetCartByCustomer(ctx context.Context, customerID int64) (model.Cart, error)
	CreateCart(ctx context.Context, customerID int64) (int64, error)
	GetActiveProduct(ctx context.Context, productID int64) (model.Product, error)
	GetItem(ctx context.Context, itemID int64) (model.CartItem, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (model.CartItem, error)
	CreateItem(ctx context.Context, item model.CartItem) (int64, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	ListLines(ctx context.Context, cartID int64) ([]Line, error)
}

// Line is a cart item joined with its product's live name and price.
type Line struct {
	ItemID    int64           `db:"item_id" json:"id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Subtotal  decimal.Decimal `db:"-" json:"subtotal"`
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db: db,
	}
}

type repo struct {
	db *sqlx.DB
}

type txKey struct{}

// ext returns the transaction bound to ctx by Transact, or the bare
// connection outside one.
func (r repo) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

func (r repo) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, txKey{}, tx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(ctx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

var getCartByCustomerQuery = "SELECT * FROM carts WHERE customer_id = ?"

func (r repo) GetCartByCustomer(ctx context.Context, customerID int64) (model.Cart, error) {
	var res model.Cart
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getCartByCustomerQuery, customerID)
	return res, err
}

var createCartQuery = "INSERT INTO carts (customer_id) VALUES (?)"

func (r repo) CreateCart(ctx context.Context, customerID int64) (int64, error) {
	res, err := r.ext(ctx).ExecContext(ctx, createCartQuery, customerID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var getActiveProductQuery = "SELECT * FROM products WHERE id = ? AND is_active = TRUE"

func (r repo) GetActiveProduct(ctx context.Context, productID int64) (model.Product, error) {
	var res model.Product
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getActiveProductQuery, productID)
	return res, err
}

var getItemQuery = "SELECT * FROM cart_items WHERE id = ?"

func (r repo) GetItem(ctx context.Context, itemID int64) (model.CartItem, error) {
	var res model.CartItem
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getItemQuery, itemID)
	return res, err
}

var getItemByProductQuery = "SELECT * FROM cart_items WHERE cart_id = ? AND product_id = ?"

func (r repo) GetItemByProduct(ctx context.Context, cartID, productID int64) (model.CartItem, error) {
	var res model.CartItem
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getItemByProductQuery, cartID, productID)
	return res, err
}

var createItemQuery = "INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (:cart_id, :product_id, :quantity)"

func (r repo) CreateItem(ctx context.Context, item model.CartItem) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createItemQuery, item)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var updateItemQuantityQuery = "UPDATE cart_items SET quantity = ? WHERE id = ?"

func (r repo) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	_, err := r.ext(ctx).ExecContext(ctx, updateItemQuantityQuery, quantity, itemID)
	return err
}

var deleteItemQuery = "DELETE FROM cart_items WHERE id = ?"

func (r repo) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := r.ext(ctx).ExecContext(ctx, deleteItemQuery, itemID)
	return err
}

var listLinesQuery = `
SELECT ci.id AS item_id, ci.product_id, p.name, p.selling_price AS price, ci.quantity
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = ?
ORDER BY ci.id`

func (r repo) ListLines(ctx context.Context, cartID int64) ([]Line, error) {
	var res []Line
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listLinesQuery, cartID)
	return res, err
}
