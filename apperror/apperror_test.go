package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_KindOf(t *testing.T) {
	assert.Equal(t, NotFound, KindOf(New(NotFound, "order not found")))
	assert.Equal(t, InsufficientStock, KindOf(Newf(InsufficientStock, "product %d", 7)))

	// Classified errors survive further wrapping.
	wrapped := fmt.Errorf("checkout: %w", New(EmptyCart, "cart is empty"))
	assert.Equal(t, EmptyCart, KindOf(wrapped))

	// Anything unclassified reads as a storage failure.
	assert.Equal(t, StorageFailure, KindOf(errors.New("connection reset")))
}

func Test_MessageOf(t *testing.T) {
	assert.Equal(t, "cart is empty", MessageOf(New(EmptyCart, "cart is empty")))

	// Raw errors never leak their text across the boundary.
	assert.Equal(t, "internal error", MessageOf(errors.New("dial tcp: timeout")))
}

func Test_Wrap_PreservesCause(t *testing.T) {
	cause := errors.New("duplicate entry")
	err := Wrap(Conflict, "username already exists", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, Conflict, KindOf(err))
	assert.Contains(t, err.Error(), "duplicate entry")
}

func Test_Is(t *testing.T) {
	err := New(InvalidTransition, "cannot move order")
	assert.True(t, Is(err, InvalidTransition))
	assert.False(t, Is(err, NotFound))
}
