package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/seekerlab/seeker/internal/db"
)

// ErrInvalidCredentials is returned on signin with a wrong email or
// password. Deliberately indistinguishable between the two.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// Service handles account signup and signin.
type Service struct {
	users  *db.UserStore
	tokens *JWTManager
	logger *zap.Logger
}

// NewService creates the auth service.
func NewService(users *db.UserStore, tokens *JWTManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Signup registers an account and returns an access token.
func (s *Service) Signup(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return "", err
	}
	s.logger.Info("account created", zap.String("user_id", user.ID))
	return s.tokens.GenerateToken(user.ID, user.Email)
}

// Signin verifies credentials and returns an access token.
func (s *Service) Signin(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.GenerateToken(user.ID, user.Email)
}
