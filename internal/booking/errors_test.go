package booking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchingSurvivesWrapping(t *testing.T) {
	base := NewShowingNotFound(7)
	wrapped := fmt.Errorf("loading schedule: %w", base)

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.True(t, IsCode(wrapped, CodeShowingNotFound))
	assert.False(t, IsKind(wrapped, KindStateConflict))

	be, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, base, be)
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("lock wait timeout exceeded")
	err := NewContention("reservation create", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lock wait timeout")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewContention("x", errors.New("deadlock"))))
	assert.True(t, Retryable(errReferenceExhausted(MaxReferenceAttempts)))

	assert.False(t, Retryable(NewShowingNotFound(1)))
	assert.False(t, Retryable(errSeatsAlreadyReserved([]string{"A1"})))
	assert.False(t, Retryable(errNotOwner(1)))
	assert.False(t, Retryable(errors.New("plain")))
	assert.False(t, Retryable(nil))
}

func TestIsKindRejectsForeignErrors(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
	assert.False(t, IsCode(nil, CodeShowingNotFound))
}
