package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Dish", "abc")

	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "Dish not found", err.Message)
	assert.Contains(t, err.Details, "abc")
	assert.Equal(t, "abc", err.Metadata["id"])
	assert.True(t, IsNotFound(err))
}

func TestIs_FollowsWrappedChain(t *testing.T) {
	base := NewConflictError("slug already exists")
	wrapped := fmt.Errorf("create dish: %w", base)

	assert.True(t, Is(wrapped, CodeConflict))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, CodeConflict, GetCode(wrapped))
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "ignored"))
	})

	t.Run("app errors pass through", func(t *testing.T) {
		original := NewValidationError("limit must be at most 100")
		assert.Same(t, original, Wrap(original, "ignored"))
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		cause := stderrors.New("boom")
		wrapped := Wrap(cause, "search failed")
		require.NotNil(t, wrapped)
		assert.Equal(t, CodeInternal, wrapped.Code)
		assert.ErrorIs(t, wrapped, cause)
	})
}

func TestGetCode_NonAppError(t *testing.T) {
	assert.Equal(t, CodeInternal, GetCode(stderrors.New("x")))
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "Limit", Message: "Limit must be at most 100"},
		{Field: "Page", Message: "Page must be at least 1"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "Limit must be at most 100; Page must be at least 1", err.Details)
}

func TestNewDatabaseError(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewDatabaseError("count dishes", cause)

	assert.Equal(t, CodeDatabaseError, err.Code)
	assert.Equal(t, "Failed to count dishes", err.Details)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
}
