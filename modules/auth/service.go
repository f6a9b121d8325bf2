package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/realtime-chat/domain/user"
	"github.com/google/uuid"
)

const (
	// MaxUsernameLength bounds usernames at registration time.
	MaxUsernameLength = 50

	adminUsername = "admin"
	adminEmail    = "admin@example.com"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotVerified is returned when a user logs in before verifying their email.
	ErrNotVerified = errors.New("email not verified")
	// ErrInvalidUsername is returned when the username is empty or too long.
	ErrInvalidUsername = errors.New("username must be 1-50 characters")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	Token     string
	UserID    string
	Username  string
	AvatarURL *string
}

// AuthService handles account business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	mailer Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, mailer Mailer) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		mailer: mailer,
	}
}

// Register creates a new unverified account and sends a verification email.
func (s *AuthService) Register(_ context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, ErrInvalidUsername
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	// bcrypt has a 72-byte input limit
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if len(password) > 72 {
		return nil, ErrPasswordTooLong
	}

	taken, err := s.repo.UsernameExists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verifyToken, err := s.jwt.GenerateVerifyToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.mailer.SendVerification(user.Email, user.Username, buildVerifyURL(verifyToken)); err != nil {
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	return user, nil
}

// Login authenticates a verified user and returns an access token.
func (s *AuthService) Login(_ context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrNotVerified
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}, nil
}

// VerifyEmail validates a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(_ context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.ValidateVerifyToken(token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetVerified(claims.UserID); err != nil {
		return nil, err
	}

	return s.repo.FindByID(claims.UserID)
}

// ValidateToken validates an access token and returns the identity claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// SetAvatar stores the avatar URL on the user record.
func (s *AuthService) SetAvatar(_ context.Context, userID, avatarURL string) (*domain.User, error) {
	if err := s.repo.SetAvatarURL(userID, avatarURL); err != nil {
		return nil, err
	}
	return s.repo.FindByID(userID)
}

// SeedAdmin ensures the admin account exists and is verified.
func (s *AuthService) SeedAdmin(_ context.Context, password string) (bool, error) {
	taken, err := s.repo.UsernameExists(adminUsername)
	if err != nil {
		return false, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if taken {
		return false, nil
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &domain.User{
		ID:           uuid.New().String(),
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(admin); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	return true, nil
}
