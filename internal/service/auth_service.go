package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/ferrante/splitledger/internal/auth"
	"github.com/ferrante/splitledger/internal/models"
)

// AuthService handles account registration and login, issuing JWT session
// tokens for the middleware to validate.
type AuthService struct {
	authenticator *auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates an AuthService.
func NewAuthService(authenticator *auth.Authenticator, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{authenticator: authenticator, jwtManager: jwtManager}
}

// Register creates a new account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	if email == "" || displayName == "" {
		return nil, "", connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("email and display name are required"))
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		return nil, "", wrapError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", wrapError(err)
	}
	slog.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user with a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", wrapError(err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, "", wrapError(err)
	}
	return user, token, nil
}
