package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
)

type IService interface {
	GetOrCreateCart(ctx context.Context, customerID int64) (model.Cart, error)
	AddItem(ctx context.Context, customerID, productID int64, quantity int) error
	SetItemQuantity(ctx context.Context, customerID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, customerID, itemID int64) error
	View(ctx context.Context, customerID int64) (View, error)
}

// View totals are derived from live product prices at read time,
// never cached on the cart.
type View struct {
	Items     []Line          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func NewService(repo IRepo) IService {
	return &service{
		repo: repo,
	}
}

type service struct {
	repo IRepo
}

func (s service) GetOrCreateCart(ctx context.Context, customerID int64) (model.Cart, error) {
	cart, err := s.repo.GetCartByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Cart{}, apperror.Wrap(apperror.StorageFailure, "failed to load cart", err)
	}

	id, err := s.repo.CreateCart(ctx, customerID)
	if err != nil {
		return model.Cart{}, apperror.Wrap(apperror.StorageFailure, "failed to create cart", err)
	}
	return model.Cart{ID: id, CustomerID: customerID}, nil
}

func (s service) AddItem(ctx context.Context, customerID, productID int64, quantity int) error {
	if quantity <= 0 {
		return apperror.New(apperror.InvalidArgument, "quantity must be greater than 0")
	}

	product, err := s.repo.GetActiveProduct(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.New(apperror.NotFound, "product not found")
	}
	if err != nil {
		return apperror.Wrap(apperror.StorageFailure, "failed to load product", err)
	}

	cart, err := s.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return err
	}

	return s.repo.Transact(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetItemByProduct(ctx, cart.ID, productID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return apperror.Wrap(apperror.StorageFailure, "failed to load cart item", err)
		}

		// Adding merges into the existing line, so stock is checked
		// against the total desired quantity.
		desired := quantity + existing.Quantity
		if product.Stock < desired {
			return apperror.New(apperror.InsufficientStock, "not enough stock available")
		}

		if existing.ID != 0 {
			if err := s.repo.UpdateItemQuantity(ctx, existing.ID, desired); err != nil {
				return apperror.Wrap(apperror.StorageFailure, "failed to update cart item", err)
			}
			return nil
		}

		_, err = s.repo.CreateItem(ctx, model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		})
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to create cart item", err)
		}
		return nil
	})
}

func (s service) SetItemQuantity(ctx context.Context, customerID, itemID int64, quantity int) error {
	item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return err
	}

	// Setting quantity to zero removes the line.
	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to remove cart item", err)
		}
		return nil
	}

	product, err := s.repo.GetActiveProduct(ctx, item.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.New(apperror.NotFound, "product not found")
	}
	if err != nil {
		return apperror.Wrap(apperror.StorageFailure, "failed to load product", err)
	}
	if product.Stock < quantity {
		return apperror.New(apperror.InsufficientStock, "not enough stock available")
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return apperror.Wrap(apperror.StorageFailure, "failed to update cart item", err)
	}
	return nil
}

func (s service) RemoveItem(ctx context.Context, customerID, itemID int64) error {
	item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return apperror.Wrap(apperror.StorageFailure, "failed to remove cart item", err)
	}
	return nil
}

// ownedItem loads itemID and checks it belongs to customerID's cart.
// Items in another customer's cart come back NotFound, same as absent
// ones, so existence is not leaked.
func (s service) ownedItem(ctx context.Context, customerID, itemID int64) (model.CartItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CartItem{}, apperror.New(apperror.NotFound, "cart item not found")
	}
	if err != nil {
		return model.CartItem{}, apperror.Wrap(apperror.StorageFailure, "failed to load cart item", err)
	}

	cart, err := s.repo.GetCartByCustomer(ctx, customerID)
	if err != nil || cart.ID != item.CartID {
		return model.CartItem{}, apperror.New(apperror.NotFound, "cart item not found")
	}
	return item, nil
}

func (s service) View(ctx context.Context, customerID int64) (View, error) {
	cart, err := s.GetOrCreateCart(ctx, customerID)
	if err != nil {
		return View{}, err
	}

	lines, err := s.repo.ListLines(ctx, cart.ID)
	if err != nil {
		return View{}, apperror.Wrap(apperror.StorageFailure, "failed to load cart items", err)
	}

	if lines == nil {
		lines = []Line{}
	}
	total := decimal.Zero
	for i := range lines {
		lines[i].Subtotal = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		total = total.Add(lines[i].Subtotal)
	}

	return View{
		Items:     lines,
		Total:     total,
		ItemCount: len(lines),
	}, nil
}
