package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// UserResponse represents an account in responses.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// RegisterInput represents a registration request.
type RegisterInput struct {
	Body struct {
		Email       string `json:"email" format:"email" doc:"Account email"`
		Password    string `json:"password" minLength:"10" doc:"Account password"`
		DisplayName string `json:"display_name,omitempty" doc:"Name shown in the app"`
	}
}

// AuthOutput represents a successful registration or login.
type AuthOutput struct {
	Body struct {
		User  UserResponse `json:"user"`
		Token string       `json:"token" doc:"Bearer JWT for subsequent requests"`
	}
}

// Register handles account creation.
func (h *AuthHandler) Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	user, token, err := h.authSvc.Register(ctx, input.Body.Email, input.Body.Password, input.Body.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return nil, huma.Error409Conflict("email already registered")
		}
		return nil, huma.Error500InternalServerError("failed to register")
	}

	out := &AuthOutput{}
	out.Body.User = UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	out.Body.Token = token
	return out, nil
}

// LoginInput represents a login request.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email"`
		Password string `json:"password"`
	}
}

// Login handles credential login.
func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	user, token, err := h.authSvc.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized("invalid credentials")
		}
		return nil, huma.Error500InternalServerError("failed to log in")
	}

	out := &AuthOutput{}
	out.Body.User = UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	out.Body.Token = token
	return out, nil
}
