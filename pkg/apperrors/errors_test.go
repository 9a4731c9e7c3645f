package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"conflict", Conflict("Already friends"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("No token provided"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Unauthorized"), http.StatusForbidden},
		{"not found", NotFound("User not found"), http.StatusNotFound},
		{"internal", Internal(errors.New("socket closed"), "failed"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("accept: %w", NotFound("Friend request not found")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalCause(t *testing.T) {
	err := Internal(errors.New("connection refused 10.0.0.3:27017"), "failed to insert user")
	assert.Equal(t, "Server error", PublicMessage(err))
	assert.Equal(t, "Server error", PublicMessage(errors.New("raw")))
	assert.Equal(t, "Not friends", PublicMessage(Conflict("Not friends")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(cause, KindConflict, "User already exists")

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(nil, KindConflict))
	assert.Contains(t, err.Error(), "duplicate key")
}
