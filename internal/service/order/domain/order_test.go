// internal/service/order/domain/order_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder("", 1, 5, 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewOrder("o-1", 1, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = NewOrder("o-1", 1, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	order, err := NewOrder("o-1", 1, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, StatePending, order.State)
}

func TestHappyPathTransitions(t *testing.T) {
	order, err := NewOrder("o-1", 1, 5, 10)
	require.NoError(t, err)

	require.NoError(t, order.BeginReservation())
	require.NoError(t, order.MarkReserved())
	require.NoError(t, order.Accept())
	assert.True(t, order.State.IsTerminal())
}

func TestCompensationTransitions(t *testing.T) {
	order, err := NewOrder("o-1", 1, 5, 10)
	require.NoError(t, err)

	require.NoError(t, order.BeginReservation())
	require.NoError(t, order.MarkReserved())
	require.NoError(t, order.BeginCompensation())
	require.NoError(t, order.MarkReleased("INTERNAL"))
	assert.Equal(t, StateReleased, order.State)
	assert.Equal(t, "INTERNAL", order.FailureReason)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	order, err := NewOrder("o-1", 1, 5, 10)
	require.NoError(t, err)

	// 未经预占不能直接提交
	assert.ErrorIs(t, order.Accept(), ErrInvalidTransition)

	require.NoError(t, order.BeginReservation())
	require.NoError(t, order.MarkReserved())
	require.NoError(t, order.Accept())

	// 终态不允许再变
	assert.ErrorIs(t, order.Fail("INTERNAL"), ErrInvalidTransition)
	assert.ErrorIs(t, order.Reject("INTERNAL"), ErrInvalidTransition)
	assert.ErrorIs(t, order.BeginReservation(), ErrInvalidTransition)
}

func TestAbortCommitOnlyFromAccepted(t *testing.T) {
	order, err := NewOrder("o-1", 1, 5, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, order.AbortCommit(), ErrInvalidTransition)

	require.NoError(t, order.BeginReservation())
	require.NoError(t, order.MarkReserved())
	require.NoError(t, order.Accept())
	require.NoError(t, order.AbortCommit())
	assert.Equal(t, StateCompensating, order.State)
}
