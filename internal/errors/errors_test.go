package errors

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewError("plan missing").Mark(ErrNotFound), http.StatusNotFound},
		{"conflict", NewError("already cancelled").Mark(ErrConflict), http.StatusConflict},
		{"invalid transition", NewError("not active").Mark(ErrInvalidTransition), http.StatusUnprocessableEntity},
		{"validation", NewError("bad body").Mark(ErrValidation), http.StatusBadRequest},
		{"permission", NewError("not owner").Mark(ErrPermissionDenied), http.StatusForbidden},
		{"unauthorized", NewError("no token").Mark(ErrUnauthorized), http.StatusUnauthorized},
		{"version conflict", NewError("stale").Mark(ErrVersionConflict), http.StatusConflict},
		{"unmarked", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestErrorBuilder(t *testing.T) {
	err := NewErrorf("plan %s not found", "plan_1").
		WithHint("Plan not found or unavailable").
		WithReportableDetails(map[string]any{"plan_id": "plan_1"}).
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Contains(t, errors.GetAllHints(err), "Plan not found or unavailable")
	assert.Contains(t, err.Error(), "plan plan_1 not found")

	wrapped := WithError(err).WithMessage("creating subscription").Mark(ErrNotFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestCodeFromErr(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidTransition, CodeFromErr(NewError("paused").Mark(ErrInvalidTransition)))
	assert.Equal(t, ErrCodeVersionConflict, CodeFromErr(NewError("stale").Mark(ErrVersionConflict)))
	assert.Equal(t, ErrCodeSystemError, CodeFromErr(errors.New("boom")))

	// the first matching entry wins when an error is marked twice
	twice := WithError(NewError("gone").Mark(ErrValidation)).Mark(ErrNotFound)
	assert.Equal(t, ErrCodeNotFound, CodeFromErr(twice))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(twice))
}
