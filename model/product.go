package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Slug          string          `db:"slug" json:"slug"`
	Description   string          `db:"description" json:"description"`
	OriginalPrice decimal.Decimal `db:"original_price" json:"original_price"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"selling_price"`
	Stock         int             `db:"stock" json:"stock"`
	BrandID       int64           `db:"brand_id" json:"brand_id"`
	CategoryID    int64           `db:"category_id" json:"category_id"`
	ColorID       sql.NullInt64   `db:"color_id" json:"-"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     sql.NullTime    `db:"created_at" json:"-"`
	UpdatedAt     sql.NullTime    `db:"updated_at" json:"-"`
}

type Category struct {
	ID       int64         `db:"id" json:"id"`
	Name     string        `db:"name" json:"name"`
	ParentID sql.NullInt64 `db:"parent_id" json:"-"`
}

type Brand struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

type Color struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
