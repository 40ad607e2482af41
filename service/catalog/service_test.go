package catalog

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	products map[int64]model.Product
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: map[int64]model.Product{}}
}

func (r *fakeRepo) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) GetProduct(_ context.Context, id int64) (model.Product, error) {
	product, ok := r.products[id]
	if !ok || !product.IsActive {
		return model.Product{}, sql.ErrNoRows
	}
	return product, nil
}

func (r *fakeRepo) GetProductBySlug(_ context.Context, slug string) (model.Product, error) {
	for _, product := range r.products {
		if product.Slug == slug && product.IsActive {
			return product, nil
		}
	}
	return model.Product{}, sql.ErrNoRows
}

func (r *fakeRepo) match(product model.Product, filter Filter) bool {
	if !product.IsActive {
		return false
	}
	if filter.CategoryID != 0 && product.CategoryID != filter.CategoryID {
		return false
	}
	if filter.BrandID != 0 && product.BrandID != filter.BrandID {
		return false
	}
	if !filter.MinPrice.IsZero() && product.SellingPrice.LessThan(filter.MinPrice) {
		return false
	}
	if !filter.MaxPrice.IsZero() && product.SellingPrice.GreaterThan(filter.MaxPrice) {
		return false
	}
	if filter.Search != "" && !strings.Contains(product.Name, filter.Search) {
		return false
	}
	return true
}

func (r *fakeRepo) ListProducts(_ context.Context, filter Filter) ([]model.Product, error) {
	var res []model.Product
	for _, product := range r.products {
		if r.match(product, filter) {
			res = append(res, product)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	offset := (filter.Page - 1) * filter.PageSize
	if offset >= len(res) {
		return nil, nil
	}
	end := offset + filter.PageSize
	if end > len(res) {
		end = len(res)
	}
	return res[offset:end], nil
}

func (r *fakeRepo) CountProducts(_ context.Context, filter Filter) (int, error) {
	count := 0
	for _, product := range r.products {
		if r.match(product, filter) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreateProduct(_ context.Context, product model.Product) (int64, error) {
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return product.ID, nil
}

func (r *fakeRepo) LockProductForUpdate(_ context.Context, id int64) (model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return model.Product{}, sql.ErrNoRows
	}
	return product, nil
}

func (r *fakeRepo) UpdateProductStock(_ context.Context, id int64, stock int) error {
	product := r.products[id]
	product.Stock = stock
	r.products[id] = product
	return nil
}

func (r *fakeRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	return nil, nil
}

func (r *fakeRepo) ListBrands(_ context.Context) ([]model.Brand, error) {
	return nil, nil
}

func (r *fakeRepo) ListColors(_ context.Context) ([]model.Color, error) {
	return nil, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seed(repo *fakeRepo, name, slug, sellingPrice string, stock int) int64 {
	id, _ := repo.CreateProduct(context.Background(), model.Product{
		Name:         name,
		Slug:         slug,
		SellingPrice: price(sellingPrice),
		Stock:        stock,
		IsActive:     true,
	})
	return id
}

func Test_ListProducts_PaginationDefaults(t *testing.T) {
	repo := newFakeRepo()
	for i := 0; i < 15; i++ {
		seed(repo, "product", "slug", "10.00", 1)
	}

	svc := NewService(repo)
	page, err := svc.ListProducts(context.Background(), Filter{})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
	assert.Equal(t, 15, page.Total)
	assert.Len(t, page.Products, defaultPageSize)

	page, err = svc.ListProducts(context.Background(), Filter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)
}

func Test_ListProducts_PageSizeCapped(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	page, err := svc.ListProducts(context.Background(), Filter{PageSize: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.PageSize)
}

func Test_ListProducts_PriceFilter(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, "cheap", "cheap", "5.00", 1)
	seed(repo, "mid", "mid", "50.00", 1)
	seed(repo, "dear", "dear", "500.00", 1)

	svc := NewService(repo)
	page, err := svc.ListProducts(context.Background(), Filter{
		MinPrice: price("10.00"),
		MaxPrice: price("100.00"),
	})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "mid", page.Products[0].Name)
}

func Test_GetProduct(t *testing.T) {
	repo := newFakeRepo()
	id := seed(repo, "keyboard", "kb-87", "50.00", 3)

	svc := NewService(repo)

	product, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "keyboard", product.Name)

	product, err = svc.GetProductBySlug(context.Background(), "kb-87")
	require.NoError(t, err)
	assert.Equal(t, id, product.ID)

	_, err = svc.GetProduct(context.Background(), 999)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func Test_CreateProduct_Validation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateProduct(context.Background(), model.Product{Slug: "x"})
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))

	_, err = svc.CreateProduct(context.Background(), model.Product{
		Name: "x", Slug: "x", SellingPrice: price("-1.00"),
	})
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))

	_, err = svc.CreateProduct(context.Background(), model.Product{
		Name: "x", Slug: "x", Stock: -1,
	})
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))
}

func Test_Restock(t *testing.T) {
	repo := newFakeRepo()
	id := seed(repo, "keyboard", "kb-87", "50.00", 3)

	svc := NewService(repo)

	stock, err := svc.Restock(context.Background(), id, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
	assert.Equal(t, 10, repo.products[id].Stock)

	_, err = svc.Restock(context.Background(), id, 0)
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))

	_, err = svc.Restock(context.Background(), 999, 5)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}
