package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/kafka"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
)

type IService interface {
	Checkout(ctx context.Context, customerID int64) (int64, error)
	ListOrders(ctx context.Context, customerID int64) ([]Summary, error)
	GetOrder(ctx context.Context, customerID, orderID int64) (Detail, error)
	TransitionStatus(ctx context.Context, orderID int64, next model.OrderStatus) error
	RecordPayment(ctx context.Context, event PaymentEvent) error
	CreateShipping(ctx context.Context, customerID, orderID int64, address, method string) (model.Shipping, error)
	AddReport(ctx context.Context, orderID int64, text string) error
	ListReports(ctx context.Context, orderID int64) ([]model.OrderReport, error)
	RelayMessages(ctx context.Context, limit int) error
	ConsumePaymentEvents(ctx context.Context, stopAfter time.Duration)
}

// Summary is one row of the order history.
type Summary struct {
	ID     int64             `json:"id"`
	Date   time.Time         `json:"date"`
	Status model.OrderStatus `json:"status"`
	Total  decimal.Decimal   `json:"total"`
	Items  []Line            `json:"items"`
}

type Detail struct {
	Summary
	Shipping *ShippingInfo `json:"shipping"`
	Payment  *PaymentInfo  `json:"payment"`
}

type ShippingInfo struct {
	Address        string `json:"address"`
	TrackingNumber string `json:"tracking_number"`
	ShippingMethod string `json:"shipping_method"`
	Status         string `json:"status"`
}

type PaymentInfo struct {
	Provider model.PaymentProvider `json:"provider"`
	Status   model.PaymentStatus   `json:"status"`
	Amount   decimal.Decimal       `json:"amount"`
}

func NewService(repo IRepo, producer kafka.IProducer, paymentConsumer kafka.IConsumer) IService {
	return &service{
		repo:            repo,
		producer:        producer,
		paymentConsumer: paymentConsumer,
	}
}

type service struct {
	repo            IRepo
	producer        kafka.IProducer
	paymentConsumer kafka.IConsumer
}

// Checkout converts the customer's cart into an immutable order in one
// transaction: lock the cart lines, lock each product in ascending
// product-id order, re-validate stock per line, snapshot current prices
// into order items, decrement stock, clear the cart, and queue the
// order-created event. Any failure rolls the whole thing back and the
// cart is left exactly as it was.
func (s service) Checkout(ctx context.Context, customerID int64) (int64, error) {
	var orderID int64
	err := s.repo.Transact(ctx, func(ctx context.Context) error {
		cart, err := s.repo.GetCartByCustomer(ctx, customerID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(apperror.NotFound, "cart not found")
		}
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to load cart", err)
		}

		items, err := s.repo.ListCartItemsForUpdate(ctx, cart.ID)
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to load cart items", err)
		}
		if len(items) == 0 {
			return apperror.New(apperror.EmptyCart, "cart is empty")
		}

		// Products are locked in ascending id order so concurrent
		// checkouts touching the same products cannot deadlock.
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products := make(map[int64]model.Product, len(ids))
		for _, id := range ids {
			product, err := s.repo.LockProductForUpdate(ctx, id)
			if err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to lock product", err)
			}
			products[id] = product
		}

		// Re-validate every line against the locked stock before any
		// write. The cart-add check may be arbitrarily stale by now.
		for _, item := range items {
			if products[item.ProductID].Stock < item.Quantity {
				return apperror.Newf(apperror.InsufficientStock,
					"not enough stock for product %d", item.ProductID)
			}
		}

		total := decimal.Zero
		for _, item := range items {
			price := products[item.ProductID].SellingPrice
			total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		orderID, err = s.repo.CreateOrder(ctx, model.OrderDetails{
			CustomerID: customerID,
			TotalPrice: total,
			Status:     model.OrderPending,
		})
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to create order", err)
		}

		eventItems := make([]OrderCreatedItem, 0, len(items))
		for _, item := range items {
			product := products[item.ProductID]
			err = s.repo.CreateOrderItem(ctx, model.OrderItem{
				OrderID:   orderID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     product.SellingPrice,
			})
			if err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to create order item", err)
			}

			product.Stock -= item.Quantity
			products[item.ProductID] = product
			err = s.repo.UpdateProductStock(ctx, item.ProductID, product.Stock)
			if err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to update stock", err)
			}

			eventItems = append(eventItems, OrderCreatedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     product.SellingPrice,
			})
		}

		if err := s.repo.DeleteCartItems(ctx, cart.ID); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to clear cart", err)
		}

		content, err := json.Marshal(OrderCreatedEvent{
			OrderID:    orderID,
			CustomerID: customerID,
			TotalPrice: total,
			Items:      eventItems,
		})
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to encode order event", err)
		}
		if err := s.repo.CreateOutbox(ctx, model.Outbox{Content: content}); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to queue order event", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

func (s service) ListOrders(ctx context.Context, customerID int64) ([]Summary, error) {
	orders, err := s.repo.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, "failed to load orders", err)
	}

	res := make([]Summary, 0, len(orders))
	for _, o := range orders {
		summary, err := s.summarize(ctx, o)
		if err != nil {
			return nil, err
		}
		res = append(res, summary)
	}
	return res, nil
}

// GetOrder is ownership-scoped: an order belonging to another customer
// comes back NotFound, concealing its existence.
func (s service) GetOrder(ctx context.Context, customerID, orderID int64) (Detail, error) {
	o, err := s.repo.GetOrderByCustomer(ctx, customerID, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return Detail{}, apperror.New(apperror.NotFound, "order not found")
	}
	if err != nil {
		return Detail{}, apperror.Wrap(apperror.StorageFailure, "failed to load order", err)
	}

	summary, err := s.summarize(ctx, o)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{Summary: summary}

	shipping, err := s.repo.GetShippingByOrder(ctx, o.ID)
	if err == nil {
		detail.Shipping = &ShippingInfo{
			Address:        shipping.Address,
			TrackingNumber: shipping.TrackingNumber,
			ShippingMethod: shipping.ShippingMethod,
			Status:         shipping.Status,
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Detail{}, apperror.Wrap(apperror.StorageFailure, "failed to load shipping", err)
	}

	payment, err := s.repo.GetPaymentByOrder(ctx, o.ID)
	if err == nil {
		detail.Payment = &PaymentInfo{
			Provider: payment.Provider,
			Status:   payment.Status,
			Amount:   payment.Amount,
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Detail{}, apperror.Wrap(apperror.StorageFailure, "failed to load payment", err)
	}

	return detail, nil
}

func (s service) summarize(ctx context.Context, o model.OrderDetails) (Summary, error) {
	lines, err := s.repo.ListOrderLines(ctx, o.ID)
	if err != nil {
		return Summary{}, apperror.Wrap(apperror.StorageFailure, "failed to load order items", err)
	}
	for i := range lines {
		lines[i].Subtotal = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
	}
	if lines == nil {
		lines = []Line{}
	}
	return Summary{
		ID:     o.ID,
		Date:   o.CreatedAt.Time,
		Status: o.Status,
		Total:  o.TotalPrice,
		Items:  lines,
	}, nil
}

// TransitionStatus moves an order along the status machine, rejecting
// moves out of terminal states and skipped intermediate states.
func (s service) TransitionStatus(ctx context.Context, orderID int64, next model.OrderStatus) error {
	if !next.Valid() {
		return apperror.Newf(apperror.InvalidArgument, "unknown order status %q", next)
	}
	return s.repo.Transact(ctx, func(ctx context.Context) error {
		o, err := s.repo.LockOrderForUpdate(ctx, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(apperror.NotFound, "order not found")
		}
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to load order", err)
		}
		if !o.Status.CanTransition(next) {
			return apperror.Newf(apperror.InvalidTransition,
				"cannot move order from %s to %s", o.Status, next)
		}
		if err := s.repo.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to update order status", err)
		}
		if next == model.OrderDelivered {
			if err := s.repo.MarkShippingDelivered(ctx, orderID); err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to update shipping", err)
			}
		}
		return nil
	})
}

// RecordPayment stores the provider's final word on a payment and
// applies the matching order transition. Replays of the same
// transaction id are no-ops.
func (s service) RecordPayment(ctx context.Context, event PaymentEvent) error {
	if event.TransactionID == "" {
		event.TransactionID = uuid.NewString()
	}
	return s.repo.Transact(ctx, func(ctx context.Context) error {
		processed, err := s.repo.IsPaymentProcessed(ctx, event.TransactionID)
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to check payment", err)
		}
		if processed {
			return nil
		}

		o, err := s.repo.LockOrderForUpdate(ctx, event.OrderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(apperror.NotFound, "order not found")
		}
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to load order", err)
		}

		err = s.repo.CreatePayment(ctx, model.Payment{
			OrderID:       event.OrderID,
			Provider:      event.Provider,
			TransactionID: event.TransactionID,
			Amount:        event.Amount,
			Status:        event.Status,
		})
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to record payment", err)
		}

		var next model.OrderStatus
		switch event.Status {
		case model.PaymentConfirmed:
			next = model.OrderConfirmed
		case model.PaymentFailed, model.PaymentCancelled:
			next = model.OrderFailed
		}
		if next != "" && o.Status.CanTransition(next) {
			if err := s.repo.UpdateOrderStatus(ctx, event.OrderID, next); err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to update order status", err)
			}
		}

		if err := s.repo.MarkPaymentProcessed(ctx, event.TransactionID); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to mark payment processed", err)
		}
		return nil
	})
}

// CreateShipping registers the shipment for a confirmed order and moves
// it to Shipped. The tracking number is generated here.
func (s service) CreateShipping(ctx context.Context, customerID, orderID int64, address, method string) (model.Shipping, error) {
	if address == "" {
		return model.Shipping{}, apperror.New(apperror.InvalidArgument, "address is required")
	}
	shipping := model.Shipping{
		OrderID:        orderID,
		CustomerID:     customerID,
		TrackingNumber: uuid.NewString(),
		Address:        address,
		ShippingMethod: method,
		ShippedAt:      sql.NullTime{Time: time.Now(), Valid: true},
		Status:         string(model.OrderShipped),
	}
	err := s.repo.Transact(ctx, func(ctx context.Context) error {
		o, err := s.repo.LockOrderForUpdate(ctx, orderID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && o.CustomerID != customerID) {
			return apperror.New(apperror.NotFound, "order not found")
		}
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to load order", err)
		}
		if !o.Status.CanTransition(model.OrderShipped) {
			return apperror.Newf(apperror.InvalidTransition,
				"cannot move order from %s to %s", o.Status, model.OrderShipped)
		}

		id, err := s.repo.CreateShipping(ctx, shipping)
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to create shipping", err)
		}
		shipping.ID = id

		if err := s.repo.UpdateOrderStatus(ctx, orderID, model.OrderShipped); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to update order status", err)
		}
		return nil
	})
	if err != nil {
		return model.Shipping{}, err
	}
	return shipping, nil
}

func (s service) AddReport(ctx context.Context, orderID int64, text string) error {
	if text == "" {
		return apperror.New(apperror.InvalidArgument, "report text is required")
	}
	err := s.repo.CreateReport(ctx, model.OrderReport{
		OrderID:    orderID,
		ReportText: text,
	})
	if err != nil {
		return apperror.Wrap(apperror.StorageFailure, "failed to create report", err)
	}
	return nil
}

func (s service) ListReports(ctx context.Context, orderID int64) ([]model.OrderReport, error) {
	reports, err := s.repo.ListReports(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, "failed to load reports", err)
	}
	return reports, nil
}

func (s service) RelayMessages(ctx context.Context, limit int) error {
	outboxes, err := s.repo.GetPendingOutbox(ctx, limit)
	if err != nil {
		return err
	}
	err = s.producer.Push(extractContents(outboxes))
	if err != nil {
		return err
	}

	return s.repo.MarkDoneOutboxes(ctx, extractIDs(outboxes))
}

func extractIDs(outboxes []model.Outbox) []int64 {
	var res []int64
	for _, outbox := range outboxes {
		res = append(res, outbox.ID)
	}
	return res
}

func extractContents(outboxes []model.Outbox) [][]byte {
	var res [][]byte
	for _, outbox := range outboxes {
		res = append(res, outbox.Content)
	}
	return res
}

// ConsumePaymentEvents applies provider callbacks from the payment
// topic until ctx is done, or for stopAfter if non-zero.
func (s service) ConsumePaymentEvents(ctx context.Context, stopAfter time.Duration) {
	startTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.paymentConsumer.Messages():
			fmt.Printf("Received message: Topic: %s, Partition: %d, Offset: %d, Key: %s, Value: %s\n",
				msg.Topic, msg.Partition, msg.Offset, string(msg.Key), string(msg.Value),
			)
			var event PaymentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Failed to decode payment event: %s", err)
				continue
			}
			if err := s.RecordPayment(ctx, event); err != nil {
				log.Printf("Failed to record payment for order %d: %s", event.OrderID, err)
			}
		case err := <-s.paymentConsumer.Errors():
			log.Printf("Failed to consume message: %s", err)
		default:
			if stopAfter != 0 && time.Now().After(startTime.Add(stopAfter)) {
				return
			}
		}
	}
}
