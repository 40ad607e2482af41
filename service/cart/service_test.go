package cart

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	carts    map[int64]model.Cart
	items    map[int64]model.CartItem
	products map[int64]model.Product
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		carts:    map[int64]model.Cart{},
		items:    map[int64]model.CartItem{},
		products: map[int64]model.Product{},
	}
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) GetCartByCustomer(_ context.Context, customerID int64) (model.Cart, error) {
	for _, c := range r.carts {
		if c.CustomerID == customerID {
			return c, nil
		}
	}
	return model.Cart{}, sql.ErrNoRows
}

func (r *fakeRepo) CreateCart(_ context.Context, customerID int64) (int64, error) {
	id := r.id()
	r.carts[id] = model.Cart{ID: id, CustomerID: customerID}
	return id, nil
}

func (r *fakeRepo) GetActiveProduct(_ context.Context, productID int64) (model.Product, error) {
	product, ok := r.products[productID]
	if !ok || !product.IsActive {
		return model.Product{}, sql.ErrNoRows
	}
	return product, nil
}

func (r *fakeRepo) GetItem(_ context.Context, itemID int64) (model.CartItem, error) {
	item, ok := r.items[itemID]
	if !ok {
		return model.CartItem{}, sql.ErrNoRows
	}
	return item, nil
}

func (r *fakeRepo) GetItemByProduct(_ context.Context, cartID, productID int64) (model.CartItem, error) {
	for _, item := range r.items {
		if item.CartID == cartID && item.ProductID == productID {
			return item, nil
		}
	}
	return model.CartItem{}, sql.ErrNoRows
}

func (r *fakeRepo) CreateItem(_ context.Context, item model.CartItem) (int64, error) {
	item.ID = r.id()
	r.items[item.ID] = item
	return item.ID, nil
}

func (r *fakeRepo) UpdateItemQuantity(_ context.Context, itemID int64, quantity int) error {
	item := r.items[itemID]
	item.Quantity = quantity
	r.items[itemID] = item
	return nil
}

func (r *fakeRepo) DeleteItem(_ context.Context, itemID int64) error {
	delete(r.items, itemID)
	return nil
}

func (r *fakeRepo) ListLines(_ context.Context, cartID int64) ([]Line, error) {
	var res []Line
	for _, item := range r.items {
		if item.CartID != cartID {
			continue
		}
		product := r.products[item.ProductID]
		res = append(res, Line{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Name:      product.Name,
			Price:     product.SellingPrice,
			Quantity:  item.Quantity,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ItemID < res[j].ItemID })
	return res, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (r *fakeRepo) seedProduct(name string, sellingPrice string, stock int) int64 {
	id := r.id()
	r.products[id] = model.Product{
		ID:           id,
		Name:         name,
		SellingPrice: price(sellingPrice),
		Stock:        stock,
		IsActive:     true,
	}
	return id
}

func Test_GetOrCreateCart_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	first, err := svc.GetOrCreateCart(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.GetOrCreateCart(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.carts, 1)
}

func Test_AddItem_MergesExistingLine(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 10)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 2))
	require.NoError(t, svc.AddItem(context.Background(), 1, p, 3))

	// One line, merged quantity. Never two rows for the same product.
	require.Len(t, repo.items, 1)
	for _, item := range repo.items {
		assert.Equal(t, 5, item.Quantity)
	}
}

func Test_AddItem_Validation(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 3)
	svc := NewService(repo)

	err := svc.AddItem(context.Background(), 1, p, 0)
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))

	err = svc.AddItem(context.Background(), 1, 999, 1)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	err = svc.AddItem(context.Background(), 1, p, 4)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))
}

func Test_AddItem_StockCheckedAgainstMergedQuantity(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 3)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 2))

	// 2 already in the cart; 2 more would need 4 in stock.
	err := svc.AddItem(context.Background(), 1, p, 2)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 1))
}

func Test_AddItem_InactiveProduct(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 10)
	product := repo.products[p]
	product.IsActive = false
	repo.products[p] = product

	svc := NewService(repo)
	err := svc.AddItem(context.Background(), 1, p, 1)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func Test_SetItemQuantity(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 10)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 2))
	var itemID int64
	for id := range repo.items {
		itemID = id
	}

	require.NoError(t, svc.SetItemQuantity(context.Background(), 1, itemID, 7))
	assert.Equal(t, 7, repo.items[itemID].Quantity)

	err := svc.SetItemQuantity(context.Background(), 1, itemID, 11)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))

	// Setting quantity to zero removes the line instead of erroring.
	require.NoError(t, svc.SetItemQuantity(context.Background(), 1, itemID, 0))
	assert.Empty(t, repo.items)
}

func Test_SetItemQuantity_OwnershipIsolation(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 10)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 2))
	var itemID int64
	for id := range repo.items {
		itemID = id
	}

	// Customer 2 cannot see, let alone mutate, customer 1's line.
	err := svc.SetItemQuantity(context.Background(), 2, itemID, 5)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	assert.Equal(t, 2, repo.items[itemID].Quantity)

	err = svc.RemoveItem(context.Background(), 2, itemID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	assert.Len(t, repo.items, 1)
}

func Test_RemoveItem(t *testing.T) {
	repo := newFakeRepo()
	p := repo.seedProduct("keyboard", "50.00", 10)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p, 2))
	var itemID int64
	for id := range repo.items {
		itemID = id
	}

	require.NoError(t, svc.RemoveItem(context.Background(), 1, itemID))
	assert.Empty(t, repo.items)

	err := svc.RemoveItem(context.Background(), 1, itemID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func Test_View_LivePrices(t *testing.T) {
	repo := newFakeRepo()
	p1 := repo.seedProduct("keyboard", "50.00", 10)
	p2 := repo.seedProduct("mouse", "30.00", 10)
	svc := NewService(repo)

	require.NoError(t, svc.AddItem(context.Background(), 1, p1, 2))
	require.NoError(t, svc.AddItem(context.Background(), 1, p2, 1))

	view, err := svc.View(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, view.Total.Equal(price("130.00")),
		"expected total 130.00, got %s", view.Total)

	// A price change shows up on the next read; nothing is cached.
	product := repo.products[p1]
	product.SellingPrice = price("60.00")
	repo.products[p1] = product

	view, err = svc.View(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(price("150.00")),
		"expected total 150.00, got %s", view.Total)
	assert.True(t, view.Items[0].Subtotal.Equal(price("120.00")))
}

func Test_View_EmptyCart(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	view, err := svc.View(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, view.ItemCount)
	assert.NotNil(t, view.Items)
	assert.True(t, view.Total.IsZero())
}
