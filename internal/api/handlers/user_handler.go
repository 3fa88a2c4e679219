package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/isdelr/notes-be/internal/api/response"
	"github.com/isdelr/notes-be/internal/apperrors"
	"github.com/isdelr/notes-be/internal/services"
	"github.com/isdelr/notes-be/internal/validation"
)

// TokenIssuer creates bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// UserHandler handles registration, login and the current-user lookup.
type UserHandler struct {
	service  services.UserServiceProvider
	tokens   TokenIssuer
	validate *validation.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer, validate *validation.Validator) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, validate: validate}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

var errEmailTaken = apperrors.Conflict("email already registered")

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.validate.Validate(payload); err != nil {
		response.Error(w, r, err)
		return
	}

	// The unique index still decides races; this only skips a wasted hash.
	_, err := h.service.GetUserByEmail(r.Context(), payload.Email)
	switch {
	case err == nil:
		response.Error(w, r, errEmailTaken)
		return
	case !errors.Is(err, apperrors.ErrNotFound):
		response.Error(w, r, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Int64("user_id", user.ID).Msg("User registered")
	response.Created(w, r, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.validate.Validate(payload); err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthenticated) {
			hlog.FromRequest(r).Warn().Msg("Failed authentication attempt")
		}
		response.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.OK(w, r, TokenResponse{Token: token})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, user)
}
