package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperror "barstock/internal/errors"
)

func TestMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		category string
	}{
		{apperror.NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperror.NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{apperror.NewConflictError("x"), http.StatusConflict, "CONFLICT"},
		{&apperror.InsufficientStockError{OrganizationID: 1, ProductID: 2}, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{apperror.NewTimeoutError("x", context.DeadlineExceeded), http.StatusGatewayTimeout, "TIMEOUT"},
		{apperror.NewInternalError("x", errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("plain"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tc := range cases {
		status, category, _ := apperror.MapToHTTPStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.category, category, tc.err.Error())
	}
}

func TestMapToHTTPStatus_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("camada de serviço: %w", apperror.NewNotFoundError("produto 9"))

	status, category, message := apperror.MapToHTTPStatus(wrapped)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", category)
	assert.Contains(t, message, "produto 9")
}

func TestNewDBError_Classification(t *testing.T) {
	lockTimeout := &pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"}
	assert.True(t, apperror.IsTransient(apperror.NewDBError("ajuste", lockTimeout)))

	deadlock := &pq.Error{Code: "40P01"}
	assert.True(t, apperror.IsTransient(apperror.NewDBError("ajuste", deadlock)))

	ctxErr := apperror.NewDBError("ajuste", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.IsType(t, &apperror.TimeoutError{}, ctxErr)

	other := apperror.NewDBError("ajuste", errors.New("connection refused"))
	assert.IsType(t, &apperror.InternalError{}, other)
	assert.False(t, apperror.IsTransient(other))
	assert.Contains(t, other.Error(), "connection refused")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, apperror.IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, apperror.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, apperror.IsUniqueViolation(errors.New("x")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, apperror.IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, apperror.IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}
