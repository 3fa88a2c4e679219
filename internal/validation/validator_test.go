package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/notes-be/internal/apperrors"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     registerRequest
		details map[string]string
	}{
		{
			name: "valid",
			req:  registerRequest{Email: "a@example.com", Password: "secret"},
		},
		{
			name:    "missing both",
			req:     registerRequest{},
			details: map[string]string{"email": "is required", "password": "is required"},
		},
		{
			name:    "bad email",
			req:     registerRequest{Email: "nope", Password: "secret"},
			details: map[string]string{"email": "must be a valid email address"},
		},
		{
			name:    "password too long in bytes",
			req:     registerRequest{Email: "a@example.com", Password: strings.Repeat("é", 37)},
			details: map[string]string{"password": "must not exceed 72 bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.details == nil {
				assert.NoError(t, err)
				return
			}

			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.CodeInvalidArgument, appErr.Code)
			assert.Equal(t, tt.details, appErr.Details)
		})
	}
}
