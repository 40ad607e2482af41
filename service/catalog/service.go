package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

type IService interface {
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (model.Product, error)
	ListProducts(ctx context.Context, filter Filter) (Page, error)
	CreateProduct(ctx context.Context, product model.Product) (int64, error)
	Restock(ctx context.Context, productID int64, quantity int) (int, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	ListColors(ctx context.Context) ([]model.Color, error)
}

type Page struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func NewService(repo IRepo) IService {
	return &service{
		repo: repo,
	}
}

type service struct {
	repo IRepo
}

func (s service) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, apperror.New(apperror.NotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, apperror.Wrap(apperror.StorageFailure, "failed to load product", err)
	}
	return product, nil
}

func (s service) GetProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	product, err := s.repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, apperror.New(apperror.NotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, apperror.Wrap(apperror.StorageFailure, "failed to load product", err)
	}
	return product, nil
}

func (s service) ListProducts(ctx context.Context, filter Filter) (Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return Page{}, apperror.Wrap(apperror.StorageFailure, "failed to list products", err)
	}
	total, err := s.repo.CountProducts(ctx, filter)
	if err != nil {
		return Page{}, apperror.Wrap(apperror.StorageFailure, "failed to count products", err)
	}

	if products == nil {
		products = []model.Product{}
	}
	return Page{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s service) CreateProduct(ctx context.Context, product model.Product) (int64, error) {
	if product.Name == "" || product.Slug == "" {
		return 0, apperror.New(apperror.InvalidArgument, "name and slug are required")
	}
	if product.SellingPrice.IsNegative() || product.OriginalPrice.IsNegative() {
		return 0, apperror.New(apperror.InvalidArgument, "price must not be negative")
	}
	if product.Stock < 0 {
		return 0, apperror.New(apperror.InvalidArgument, "stock must not be negative")
	}

	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return 0, apperror.Wrap(apperror.StorageFailure, "failed to create product", err)
	}
	return id, nil
}

// Restock adds quantity units to a product's stock and returns the new
// level.
func (s service) Restock(ctx context.Context, productID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperror.New(apperror.InvalidArgument, "quantity must be greater than 0")
	}

	var stock int
	err := s.repo.Transact(ctx, func(ctx context.Context) error {
		product, err := s.repo.LockProductForUpdate(ctx, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(apperror.NotFound, "product not found")
		}
		if err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to lock product", err)
		}

		stock = product.Stock + quantity
		if err := s.repo.UpdateProductStock(ctx, productID, stock); err != nil {
			return apperror.Wrap(apperror.StorageFailure, "failed to update stock", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stock, nil
}

func (s service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, "failed to list categories", err)
	}
	return categories, nil
}

func (s service) ListBrands(ctx context.Context) ([]model.Brand, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, "failed to list brands", err)
	}
	return brands, nil
}

func (s service) ListColors(ctx context.Context) ([]model.Color, error) {
	colors, err := s.repo.ListColors(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageFailure, "failed to list colors", err)
	}
	return colors, nil
}
