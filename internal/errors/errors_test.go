package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFound("Task not found")
	assert.Equal(t, "Task not found", err.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeInternal, "lookup failed", cause)
	assert.Equal(t, "lookup failed: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"not found", NotFound("x"), ErrCodeNotFound},
		{"not found formatted", NotFoundf("task %d", 7), ErrCodeNotFound},
		{"unauthorized", Unauthorized("x"), ErrCodeUnauthorized},
		{"conflict", Conflict("x"), ErrCodeConflict},
		{"validation", Validation("x"), ErrCodeValidation},
		{"validation field", ValidationField("userId", "x"), ErrCodeValidation},
		{"invalid transition", InvalidTransitionf("from %s", "Completed"), ErrCodeInvalidTransition},
		{"quota", QuotaExceededf("max %d", 100), ErrCodeQuotaExceeded},
		{"internal", Internal("x"), ErrCodeInternal},
		{"plain error", errors.New("boom"), ErrCodeInternal},
		{"wrapped app error", fmt.Errorf("outer: %w", Conflict("x")), ErrCodeConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, Code(tc.err))
			assert.True(t, Is(tc.err, tc.code))
		})
	}
}

func TestIsRejectsOtherCodes(t *testing.T) {
	err := NotFound("x")
	assert.False(t, Is(err, ErrCodeConflict))
	assert.False(t, Is(nil, ErrCodeNotFound))
}

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	require.True(t, Is(MapDBError(context.DeadlineExceeded), ErrCodeTimeout))
	require.True(t, Is(MapDBError(context.Canceled), ErrCodeCanceled))
	require.True(t, Is(MapDBError(pgx.ErrNoRows), ErrCodeNotFound))

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "task_id"}
	mapped := MapDBError(unique)
	require.True(t, Is(mapped, ErrCodeConflict))
	var appErr *AppError
	require.ErrorAs(t, mapped, &appErr)
	assert.Equal(t, "task_id", appErr.Field)

	check := &pgconn.PgError{Code: pgerrcode.CheckViolation}
	assert.True(t, Is(MapDBError(check), ErrCodeValidation))

	other := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	assert.True(t, Is(MapDBError(other), ErrCodeInternal))

	// Unrecognized errors pass through untouched.
	plain := errors.New("boom")
	assert.Equal(t, plain, MapDBError(plain))
}
