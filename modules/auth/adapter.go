package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface other modules use to reach account
// operations.
type AuthPort interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	VerifyEmail(ctx context.Context, token string) (*domain.Claims, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	SetAvatar(ctx context.Context, userID, avatarURL string) (string, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// errorFromCode maps a response error code back onto a sentinel error.
func errorFromCode(code, message string) error {
	switch code {
	case CodeNotFound:
		return ErrUserNotFound
	case CodeConflict:
		return ErrUserExists
	case CodeUnauthorized:
		return ErrInvalidCredentials
	case CodeForbidden:
		return ErrNotVerified
	case CodeValidation:
		switch message {
		case ErrInvalidUsername.Error():
			return ErrInvalidUsername
		case ErrWeakPassword.Error():
			return ErrWeakPassword
		case ErrPasswordTooLong.Error():
			return ErrPasswordTooLong
		default:
			return ErrInvalidEmail
		}
	case CodeInvalidToken:
		if message == ErrExpiredToken.Error() {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	default:
		return fmt.Errorf("auth service error: %s", message)
	}
}

// Register creates a new unverified account.
func (a *AuthAdapter) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	req := RegisterRequest{Username: username, Email: email, Password: password}
	var resp RegisterResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceRegister,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// Login authenticates a verified user and returns an access token.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceLogin,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &LoginResult{
		Token:     resp.Token,
		UserID:    resp.UserID,
		Username:  resp.Username,
		AvatarURL: resp.AvatarURL,
	}, nil
}

// VerifyEmail validates a verification token and marks the account verified.
func (a *AuthAdapter) VerifyEmail(ctx context.Context, token string) (*domain.Claims, error) {
	req := VerifyEmailRequest{Token: token}
	var resp VerifyEmailResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceVerifyEmail,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("verify-email request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &domain.Claims{UserID: resp.UserID, Username: resp.Username}, nil
}

// ValidateToken validates an access token and returns the identity claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceValidateToken,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}
	if !resp.Valid {
		return nil, ErrInvalidToken
	}
	return &domain.Claims{UserID: resp.UserID, Username: resp.Username}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetUser,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		AvatarURL: resp.AvatarURL,
		Verified:  resp.Verified,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// SetAvatar persists the avatar URL on the user record.
func (a *AuthAdapter) SetAvatar(ctx context.Context, userID, avatarURL string) (string, error) {
	req := SetAvatarRequest{UserID: userID, AvatarURL: avatarURL}
	var resp SetAvatarResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceSetAvatar,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return "", fmt.Errorf("set-avatar request failed: %w", err)
	}
	if resp.Error != "" {
		return "", errorFromCode(resp.Code, resp.Error)
	}
	return resp.AvatarURL, nil
}
