package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/pastrypal/pastrypal-backend/internal/auth/jwt"
	"github.com/pastrypal/pastrypal-backend/internal/auth/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
}

// AuthService handles authentication logic
type AuthService struct {
	users      UserStore
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        *actor.Actor `json:"user"`
}

// Login authenticates a user and returns an access token.
// Unknown email and wrong password both map to the same invalid-credentials
// failure so the login form cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.InvalidCredentials()
	}

	a := &actor.Actor{
		ID:    user.ID,
		Email: user.Email,
		Role:  actor.Role(user.Role),
	}

	token, err := s.jwtManager.Generate(a)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate token")
		return nil, errors.Internal("failed to generate token")
	}

	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		User:        a,
	}, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
