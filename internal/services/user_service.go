package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/isdelr/notes-be/internal/apperrors"
	"github.com/isdelr/notes-be/internal/auth"
	"github.com/isdelr/notes-be/internal/database"
	"github.com/isdelr/notes-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db     *database.DB
	hasher *auth.PasswordHasher
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB, hasher *auth.PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher, now: time.Now}
}

var (
	errEmailTaken         = apperrors.Conflict("email already registered")
	errUserNotFound       = apperrors.NotFound("user not found")
	errInvalidCredentials = apperrors.Unauthenticated("invalid email or password")
)

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(ctx context.Context, email, password string) (models.User, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return models.User{}, apperrors.Internal("failed to register user", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	err = s.db.GetContext(ctx, &user.ID,
		s.db.Rebind(`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, errEmailTaken
		}
		return models.User{}, apperrors.Internal("failed to register user", err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (s *UserService) getUser(ctx context.Context, query string, arg any) (models.User, error) {
	var user models.User
	if err := s.db.GetContext(ctx, &user, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errUserNotFound
		}
		return models.User{}, apperrors.Internal("failed to load user", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords produce the same error and take comparable time.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, err
	}

	// user.PasswordHash is empty for unknown emails; Compare burns a dummy hash then.
	ok, cmpErr := s.hasher.Compare(ctx, user.PasswordHash, password)
	if cmpErr != nil {
		return models.User{}, apperrors.Internal("failed to verify credentials", cmpErr)
	}
	if err != nil || !ok {
		return models.User{}, errInvalidCredentials
	}
	return user, nil
}
