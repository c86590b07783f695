package errors

import (
	"net/http"
	"testing"

	"erp/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_WrapKeepsIdentity(t *testing.T) {
	err := ErrProductUnavailable.WrapMessage("product 3 has 1 left")

	assert.True(t, errors.Is(err, ErrProductUnavailable))

	var appErr AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode())
	assert.Equal(t, "PRODUCT_UNAVAILABLE", appErr.ErrorCode())
}

func TestBaseError_WithDetails(t *testing.T) {
	err := ErrFieldNotAllowed.WithDetails("email")

	assert.Equal(t, "email", err.Details())
	assert.Empty(t, ErrFieldNotAllowed.Details(), "predefined error must not be mutated")
	assert.Equal(t, ErrFieldNotAllowed.ErrorCode(), err.ErrorCode())
}

func TestDatabaseExecuteError_HidesCause(t *testing.T) {
	err := NewDatabaseExecuteError(errors.New("pq: relation does not exist"), "failed to list orders")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.NotContains(t, err.Message(), "relation")
	assert.Contains(t, err.Error(), "relation")
}

func TestBaseError_IsMatchesDetailedCopy(t *testing.T) {
	err := errors.Wrap(ErrFieldNotAllowed.WithDetails("email"), "update self")

	assert.True(t, errors.Is(err, ErrFieldNotAllowed))
	assert.False(t, errors.Is(err, ErrForbidden))
}
