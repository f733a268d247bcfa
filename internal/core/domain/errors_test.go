package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err     error
		kind    Kind
		status  int
		message string
	}{
		{Validation("%s is required", "name"), KindValidation, http.StatusBadRequest, "name is required"},
		{Unauthorized("Invalid token"), KindUnauthorized, http.StatusUnauthorized, "Invalid token"},
		{Forbidden("Access denied"), KindForbidden, http.StatusForbidden, "Access denied"},
		{NotFound("Product"), KindNotFound, http.StatusNotFound, "Product not found"},
		{Conflict("Email already in use"), KindConflict, http.StatusConflict, "Email already in use"},
		{Unavailable("Email could not be sent", errors.New("dial tcp")), KindUnavailable, http.StatusServiceUnavailable, "Email could not be sent"},
		{errors.New("boom"), KindUnexpected, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.Equal(t, tt.status, KindOf(wrapped).HTTPStatus())
			assert.Equal(t, tt.message, PublicMessage(wrapped))
		})
	}
}

func TestSentinelsMatchByKind(t *testing.T) {
	err := fmt.Errorf("get product: %w", NotFound("Product"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	bare := fmt.Errorf("users.Create: %w", ErrConflict)
	assert.ErrorIs(t, bare, ErrConflict)
	assert.Equal(t, "conflict", PublicMessage(bare))
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("smtp timeout")
	err := Unavailable("Email could not be sent", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Email could not be sent: smtp timeout", err.Error())
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 64b7f0c2a1b2c3d4e5f60718 ", "product")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())

	_, err = ParseID("nope", "product")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid product id", PublicMessage(err))

	id, err = ParseOptionalID("", "reply")
	require.NoError(t, err)
	assert.True(t, id.IsZero())

	_, err = ParseOptionalID("xyz", "reply")
	assert.Equal(t, "Invalid reply id", PublicMessage(err))
}
