package catalog

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rafata1/gocommerce/model"
	"github.com/shopspring/decimal"
)

type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (model.Product, error)
	ListProducts(ctx context.Context, filter Filter) ([]model.Product, error)
	CountProducts(ctx context.Context, filter Filter) (int, error)
	CreateProduct(ctx context.Context, product model.Product) (int64, error)
	LockProductForUpdate(ctx context.Context, id int64) (model.Product, error)
	UpdateProductStock(ctx context.Context, id int64, stock int) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	ListColors(ctx context.Context) ([]model.Color, error)
}

// Filter narrows the product listing. Zero values mean "no constraint".
type Filter struct {
	CategoryID int64
	BrandID    int64
	ColorID    int64
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	Search     string
	OrderBy    string
	Page       int
	PageSize   int
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

var getProductQuery = "SELECT * FROM products WHERE id = ? AND is_active = TRUE"

func (r repo) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var res model.Product
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getProductQuery, id)
	return res, err
}

var getProductBySlugQuery = "SELECT * FROM products WHERE slug = ? AND is_active = TRUE"

func (r repo) GetProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	var res model.Product
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, getProductBySlugQuery, slug)
	return res, err
}

// orderColumns whitelists order-by targets; anything else falls back
// to created_at.
var orderColumns = map[string]string{
	"name":          "name",
	"selling_price": "selling_price",
	"stock":         "stock",
	"created_at":    "created_at",
}

func buildProductWhere(filter Filter) (string, []any) {
	conds := []string{"is_active = TRUE"}
	var args []any

	if filter.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.BrandID != 0 {
		conds = append(conds, "brand_id = ?")
		args = append(args, filter.BrandID)
	}
	if filter.ColorID != 0 {
		conds = append(conds, "color_id = ?")
		args = append(args, filter.ColorID)
	}
	if !filter.MinPrice.IsZero() {
		conds = append(conds, "selling_price >= ?")
		args = append(args, filter.MinPrice)
	}
	if !filter.MaxPrice.IsZero() {
		conds = append(conds, "selling_price <= ?")
		args = append(args, filter.MaxPrice)
	}
	if filter.Search != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	return strings.Join(conds, " AND "), args
}

func (r repo) ListProducts(ctx context.Context, filter Filter) ([]model.Product, error) {
	where, args := buildProductWhere(filter)

	orderBy, ok := orderColumns[filter.OrderBy]
	if !ok {
		orderBy = "created_at"
	}

	query := fmt.Sprintf(
		"SELECT * FROM products WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		where, orderBy,
	)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	var res []model.Product
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, query, args...)
	return res, err
}

func (r repo) CountProducts(ctx context.Context, filter Filter) (int, error) {
	where, args := buildProductWhere(filter)
	query := fmt.Sprintf("SELECT count(*) FROM products WHERE %s", where)

	var res int
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, query, args...)
	return res, err
}

var createProductQuery = `
INSERT INTO products (name, slug, description, original_price, selling_price, stock, brand_id, category_id, color_id, is_active)
VALUES (:name, :slug, :description, :original_price, :selling_price, :stock, :brand_id, :category_id, :color_id, :is_active)`

func (r repo) CreateProduct(ctx context.Context, product model.Product) (int64, error) {
	res, err := sqlx.NamedExecContext(ctx, r.ext(ctx), createProductQuery, product)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var lockProductForUpdateQuery = "SELECT * FROM products WHERE id = ? FOR UPDATE"

func (r repo) LockProductForUpdate(ctx context.Context, id int64) (model.Product, error) {
	var res model.Product
	err := sqlx.GetContext(ctx, r.ext(ctx), &res, lockProductForUpdateQuery, id)
	return res, err
}

var updateProductStockQuery = "UPDATE products SET stock = ? WHERE id = ?"

func (r repo) UpdateProductStock(ctx context.Context, id int64, stock int) error {
	_, err := r.ext(ctx).ExecContext(ctx, updateProductStockQuery, stock, id)
	return err
}

var listCategoriesQuery = "SELECT * FROM categories ORDER BY name"

func (r repo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var res []model.Category
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listCategoriesQuery)
	return res, err
}

var listBrandsQuery = "SELECT * FROM brands ORDER BY name"

func (r repo) ListBrands(ctx context.Context) ([]model.Brand, error) {
	var res []model.Brand
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listBrandsQuery)
	return res, err
}

var listColorsQuery = "SELECT * FROM colors ORDER BY name"

func (r repo) ListColors(ctx context.Context) ([]model.Color, error) {
	var res []model.Color
	err := sqlx.SelectContext(ctx, r.ext(ctx), &res, listColorsQuery)
	return res, err
}
