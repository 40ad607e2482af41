package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"golang.org/x/crypto/bcrypt"
)

// Principal is the authenticated caller every core operation receives
// explicitly. Nothing downstream reads auth state out of band.
type Principal struct {
	CustomerID int64
	Username   string
}

type IService interface {
	SignUp(ctx context.Context, input SignUpInput) (model.Customer, error)
	SignIn(ctx context.Context, username, password string) (string, error)
	VerifyToken(ctx context.Context, token string) (Principal, error)
	GetProfile(ctx context.Context, customerID int64) (model.Customer, error)
}

type SignUpInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func NewService(repo IRepo, secret string, expiry time.Duration) IService {
	return &service{
		repo:   repo,
		secret: []byte(secret),
		expiry: expiry,
	}
}

type service struct {
	repo   IRepo
	secret []byte
	expiry time.Duration
}

func (s service) SignUp(ctx context.Context, input SignUpInput) (model.Customer, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return model.Customer{}, apperror.New(apperror.InvalidArgument,
			"username, email and password are required")
	}

	taken, err := s.repo.UsernameExists(ctx, input.Username)
	if err != nil {
		return model.Customer{}, apperror.Wrap(apperror.StorageFailure, "failed to check username", err)
	}
	if taken {
		return model.Customer{}, apperror.New(apperror.Conflict, "username already exists")
	}

	taken, err = s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return model.Customer{}, apperror.Wrap(apperror.StorageFailure, "failed to check email", err)
	}
	if taken {
		return model.Customer{}, apperror.New(apperror.Conflict, "email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.Customer{}, apperror.Wrap(apperror.StorageFailure, "failed to hash password", err)
	}

	customer := model.Customer{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}
	id, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return model.Customer{}, apperror.Wrap(apperror.StorageFailure, "failed to create customer", err)
	}
	customer.ID = id
	customer.PasswordHash = ""
	return customer, nil
}

func (s service) SignIn(ctx context.Context, username, password string) (string, error) {
	customer, err := s.repo.GetCustomerByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.New(apperror.Unauthorized, "invalid credentials")
	}
	if err != nil {
		return "", apperror.Wrap(apperror.StorageFailure, "failed to load customer", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return "", apperror.New(apperror.Unauthorized, "invalid credentials")
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(customer.ID, 10),
		Issuer:    "gocommerce",
		ID:        customer.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperror.Wrap(apperror.StorageFailure, "failed to sign token", err)
	}
	return token, nil
}

func (s service) VerifyToken(ctx context.Context, tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, apperror.New(apperror.Unauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return Principal{}, apperror.New(apperror.Unauthorized, "invalid token")
	}
	customerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, apperror.New(apperror.Unauthorized, "invalid token")
	}

	return Principal{
		CustomerID: customerID,
		Username:   claims.ID,
	}, nil
}

func (s service) GetProfile(ctx context.Context, customerID int64) (model.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, apperror.New(apperror.NotFound, "customer not found")
	}
	if err != nil {
		return model.Customer{}, apperror.Wrap(apperror.StorageFailure, "failed to load customer", err)
	}
	customer.PasswordHash = ""
	return customer, nil
}
