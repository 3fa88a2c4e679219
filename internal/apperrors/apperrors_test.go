package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, CodeInvalidArgument.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeConflict.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, CodeRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Code("SOMETHING_ELSE").HTTPStatus())
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading note: %w", NotFound("note 3 not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Internal("failed to save note", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save note", err.Message)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestIsIgnoresPlainErrors(t *testing.T) {
	assert.False(t, errors.Is(errors.New("not found"), ErrNotFound))
}
