package identity

import (
	"context"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rafata1/gocommerce/model"
)

type IRepo interface {
	GetCustomerByUsername(ctx context.Context, username string) (model.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (model.Customer, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateCustomer(ctx context.Context, customer model.Customer) (int64, error)
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db: db,
	}
}

type repo struct {
	db *sqlx.DB
}

var getCustomerByUsernameQuery = "SELECT * FROM customers WHERE username = ?"

func (r repo) GetCustomerByUsername(ctx context.Context, username string) (model.Customer, error) {
	var res model.Customer
	err := r.db.GetContext(ctx, &res, getCustomerByUsernameQuery, username)
	return res, err
}

var getCustomerByIDQuery = "SELECT * FROM customers WHERE id = ?"

func (r repo) GetCustomerByID(ctx context.Context, id int64) (model.Customer, error) {
	var res model.Customer
	err := r.db.GetContext(ctx, &res, getCustomerByIDQuery, id)
	return res, err
}

var usernameExistsQuery = "SELECT count(*) FROM customers WHERE username = ?"

func (r repo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var res int
	err := r.db.GetContext(ctx, &res, usernameExistsQuery, username)
	return res > 0, err
}

var emailExistsQuery = "SELECT count(*) FROM customers WHERE email = ?"

func (r repo) EmailExists(ctx context.Context, email string) (bool, error) {
	var res int
	err := r.db.GetContext(ctx, &res, emailExistsQuery, email)
	return res > 0, err
}

var createCustomerQuery = "INSERT INTO customers (username, email, password_hash, first_name, last_name) VALUES (:username, :email, :password_hash, :first_name, :last_name)"

func (r repo) CreateCustomer(ctx context.Context, customer model.Customer) (int64, error) {
	res, err := r.db.NamedExecContext(ctx, createCustomerQuery, customer)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
