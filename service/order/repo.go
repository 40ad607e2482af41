package order

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
	ListCartItemsForUpdate(ctx context.Context, cartID int64) ([]model.CartItem, error)
	DeleteCartItems(ctx context.Context, cartID int64) error

	LockProductForUpdate(ctx context.Context, productID int64) (model.Product, error)
	UpdateProductStock(ctx context.Context, productID int64, stock int) error

	CreateOrder(ctx context.Context, order model.OrderDetails) (int64, error)
	CreateOrderItem(ctx context.Context, item model.OrderItem) error
	LockOrderForUpdate(ctx context.Context, orderID int64) (model.OrderDetails, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.OrderDetails, error)
	GetOrderByCustomer(ctx context.Context, customerID, orderID int64) (model.OrderDetails, error)
	ListOrderLines(ctx context.Context, orderID int64) ([]Line, error)

	CreatePayment(ctx context.Context, payment model.Payment) error
	GetPaymentByOrder(ctx context.Context, orderID int64) (model.Payment, error)
	IsPaymentProcessed(ctx context.Context, transactionID string) (bool, error)
	MarkPaymentProcessed(ctx context.Context, transactionID string) error

	CreateShipping(ctx context.Context, shipping model.Shipping) (int64, error)
	GetShippingByOrder(ctx context.Context, orderID int64) (model.Shipping, error)
	MarkShippingDelivered(ctx context.Context, orderID int64) error

	CreateReport(ctx context.Context, report model.OrderReport) error
	ListReports(ctx context.Context, orderID int64) ([]model.OrderReport, error)

	CreateOutbox(ctx context.Context, outbox model.Outbox) error
	GetPendingOutbox(ctx context.Context, limit int) ([]model.Outbox, error)
	MarkDoneOutboxes(ctx context.Context, ids []int64) error
}

// Line is an order item joined with the product's name at query time.
// Price and quantity come from the frozen order_items row.
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

// Cart item rows stay locked for the whole checkout transaction so two
// concurrent checkouts by the same customer cannot consume the same cart.
var listCartItemsForUpdateQuery = "SELECT * FROM cart_items WHERE cart_id = ? ORDER BY id FOR UPDATE"

func (r repo) ListCartItemsForUpdate(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var res []model.CartItem
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listCartItemsForUpdateQuery, cartID)
	return res, err
}

var deleteCartItemsQuery = "DELETE FROM cart_items WHERE cart_id = ?"

func (r repo) DeleteCartItems(ctx context.Context, cartID int64) error {
	_, err := r.ext(ctx).ExecContext(ctx, deleteCartItemsQuery, cartID)
	return err
}

var lockProductForUpdateQuery = "SELECT * FROM products WHERE id = ? FOR UPDATE"

func (r repo) LockProductForUpdate(ctx context.Context, productID int64) (model.Product, error) {
	var res model.Product
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, lockProductForUpdateQuery, productID)
	return res, err
}

var updateProductStockQuery = "UPDATE products SET stock = ? WHERE id = ?"

func (r repo) UpdateProductStock(ctx context.Context, productID int64, stock int) error {
	_, err := r.ext(ctx).ExecContext(ctx, updateProductStockQuery, stock, productID)
	return err
}

var createOrderQuery = "INSERT INTO order_details (customer_id, total_price, status) VALUES (:customer_id, :total_price, :status)"

func (r repo) CreateOrder(ctx context.Context, order model.OrderDetails) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOrderQuery, order)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var createOrderItemQuery = "INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (:order_id, :product_id, :quantity, :price)"

func (r repo) CreateOrderItem(ctx context.Context, item model.OrderItem) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOrderItemQuery, item)
	return err
}

var lockOrderForUpdateQuery = "SELECT * FROM order_details WHERE id = ? FOR UPDATE"

func (r repo) LockOrderForUpdate(ctx context.Context, orderID int64) (model.OrderDetails, error) {
	var res model.OrderDetails
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, lockOrderForUpdateQuery, orderID)
	return res, err
}

var updateOrderStatusQuery = "UPDATE order_details SET status = ? WHERE id = ?"

func (r repo) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	_, err := r.ext(ctx).ExecContext(ctx, updateOrderStatusQuery, status, orderID)
	return err
}

var listOrdersByCustomerQuery = "SELECT * FROM order_details WHERE customer_id = ? ORDER BY created_at DESC, id DESC"

func (r repo) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]model.OrderDetails, error) {
	var res []model.OrderDetails
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listOrdersByCustomerQuery, customerID)
	return res, err
}

var getOrderByCustomerQuery = "SELECT * FROM order_details WHERE id = ? AND customer_id = ?"

func (r repo) GetOrderByCustomer(ctx context.Context, customerID, orderID int64) (model.OrderDetails, error) {
	var res model.OrderDetails
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getOrderByCustomerQuery, orderID, customerID)
	return res, err
}

var listOrderLinesQuery = `
SELECT oi.id AS item_id, oi.product_id, p.name, oi.price, oi.quantity
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = ?
ORDER BY oi.id`

func (r repo) ListOrderLines(ctx context.Context, orderID int64) ([]Line, error) {
	var res []Line
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listOrderLinesQuery, orderID)
	return res, err
}

var createPaymentQuery = "INSERT INTO payments (order_id, provider, transaction_id, amount, status) VALUES (:order_id, :provider, :transaction_id, :amount, :status)"

func (r repo) CreatePayment(ctx context.Context, payment model.Payment) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createPaymentQuery, payment)
	return err
}

var getPaymentByOrderQuery = "SELECT * FROM payments WHERE order_id = ? ORDER BY id DESC LIMIT 1"

func (r repo) GetPaymentByOrder(ctx context.Context, orderID int64) (model.Payment, error) {
	var res model.Payment
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getPaymentByOrderQuery, orderID)
	return res, err
}

var isPaymentProcessedQuery = "SELECT count(*) FROM processed_payments WHERE transaction_id = ?"

func (r repo) IsPaymentProcessed(ctx context.Context, transactionID string) (bool, error) {
	var res int
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, isPaymentProcessedQuery, transactionID)
	return res > 0, err
}

var markPaymentProcessedQuery = "INSERT INTO processed_payments (transaction_id) VALUES (?)"

func (r repo) MarkPaymentProcessed(ctx context.Context, transactionID string) error {
	_, err := r.ext(ctx).ExecContext(ctx, markPaymentProcessedQuery, transactionID)
	return err
}

var createShippingQuery = "INSERT INTO shippings (order_id, customer_id, tracking_number, address, shipping_method, shipped_at, status) VALUES (:order_id, :customer_id, :tracking_number, :address, :shipping_method, :shipped_at, :status)"

func (r repo) CreateShipping(ctx context.Context, shipping model.Shipping) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createShippingQuery, shipping)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var getShippingByOrderQuery = "SELECT * FROM shippings WHERE order_id = ? ORDER BY id DESC LIMIT 1"

func (r repo) GetShippingByOrder(ctx context.Context, orderID int64) (model.Shipping, error) {
	var res model.Shipping
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getShippingByOrderQuery, orderID)
	return res, err
}

var markShippingDeliveredQuery = "UPDATE shippings SET status = 'Delivered', delivered_at = NOW() WHERE order_id = ?"

func (r repo) MarkShippingDelivered(ctx context.Context, orderID int64) error {
	_, err := r.ext(ctx).ExecContext(ctx, markShippingDeliveredQuery, orderID)
	return err
}

var createReportQuery = "INSERT INTO order_reports (order_id, report_text) VALUES (:order_id, :report_text)"

func (r repo) CreateReport(ctx context.Context, report model.OrderReport) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createReportQuery, report)
	return err
}

var listReportsQuery = "SELECT * FROM order_reports WHERE order_id = ? ORDER BY id"

func (r repo) ListReports(ctx context.Context, orderID int64) ([]model.OrderReport, error) {
	var res []model.OrderReport
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listReportsQuery, orderID)
	return res, err
}

var createOutboxQuery = "INSERT INTO order_outboxes(content) VALUES (:content)"

func (r repo) CreateOutbox(ctx context.Context, outbox model.Outbox) error {
	_, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createOutboxQuery, outbox)
	return err
}

var getPendingOutboxQuery = "SELECT * FROM order_outboxes WHERE status = ? LIMIT ?"

func (r repo) GetPendingOutbox(ctx context.Context, limit int) ([]model.Outbox, error) {
	var res []model.Outbox
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, getPendingOutboxQuery, model.OutboxPending, limit)
	return res, err
}

var markDoneOutboxesQuery = "UPDATE order_outboxes SET status = ? WHERE id IN (?)"

func (r repo) MarkDoneOutboxes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(markDoneOutboxesQuery, model.OutboxCompleted, ids)
	if err != nil {
		return err
	}

	_, err = r.ext(ctx).ExecContext(ctx, query, args...)
	return err
}
