package identity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	customers map[int64]model.Customer
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: map[int64]model.Customer{}}
}

func (r *fakeRepo) GetCustomerByUsername(_ context.Context, username string) (model.Customer, error) {
	for _, c := range r.customers {
		if c.Username == username {
			return c, nil
		}
	}
	return model.Customer{}, sql.ErrNoRows
}

func (r *fakeRepo) GetCustomerByID(_ context.Context, id int64) (model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return model.Customer{}, sql.ErrNoRows
	}
	return c, nil
}

func (r *fakeRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	_, err := r.GetCustomerByUsername(context.Background(), username)
	return err == nil, nil
}

func (r *fakeRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, c := range r.customers {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CreateCustomer(_ context.Context, customer model.Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	r.customers[customer.ID] = customer
	return customer.ID, nil
}

func newTestService(repo IRepo) IService {
	return NewService(repo, "test-secret", time.Hour)
}

func Test_SignUp_SignIn_Verify(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	customer, err := svc.SignUp(ctx, SignUpInput{
		Username: "ana",
		Email:    "ana@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Empty(t, customer.PasswordHash)

	token, err := svc.SignIn(ctx, "ana", "hunter22")
	require.NoError(t, err)

	principal, err := svc.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, principal.CustomerID)
	assert.Equal(t, "ana", principal.Username)
}

func Test_SignUp_Duplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Username: "ana", Email: "ana@example.com", Password: "x1"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, SignUpInput{Username: "ana", Email: "other@example.com", Password: "x1"})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	_, err = svc.SignUp(ctx, SignUpInput{Username: "bob", Email: "ana@example.com", Password: "x1"})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
}

func Test_SignUp_MissingFields(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.SignUp(context.Background(), SignUpInput{Username: "ana"})
	assert.Equal(t, apperror.InvalidArgument, apperror.KindOf(err))
}

func Test_SignIn_BadCredentials(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Username: "ana", Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "ana", "wrong")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	// Unknown usernames fail the same way as bad passwords.
	_, err = svc.SignIn(ctx, "nobody", "hunter22")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))
}

func Test_VerifyToken_Invalid(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.VerifyToken(context.Background(), "not-a-token")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	// A token signed with another secret is rejected.
	other := NewService(newFakeRepo(), "other-secret", time.Hour)
	repo := newFakeRepo()
	signer := newTestService(repo)
	_, err = signer.SignUp(context.Background(), SignUpInput{Username: "ana", Email: "a@example.com", Password: "x1"})
	assert.NoError(t, err)
	token, err := signer.SignIn(context.Background(), "ana", "x1")
	assert.NoError(t, err)

	_, err = other.VerifyToken(context.Background(), token)
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))
}
