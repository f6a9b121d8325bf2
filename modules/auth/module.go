package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/realtime-chat/domain/user"
)

// Module provides account and token services backed by its own user store.
type Module struct {
	db      *gorm.DB
	service *AuthService
	logger  types.Logger
	dbPath  string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new auth module.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("AUTH_DB_PATH")
	if dbPath == "" {
		dbPath = "auth.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Start opens the user database, migrates the schema and seeds the admin
// account.
func (m *Module) Start(ctx context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := NewUserRepository(db)
	hasher := NewPasswordHasher()
	jwtManager := NewJWTManager(loadJWTConfig())
	m.service = NewAuthService(repo, hasher, jwtManager, NewLogMailer())

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "ADMIN123"
	}
	created, err := m.service.SeedAdmin(ctx, adminPassword)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		m.logger.Info("Created admin user", "username", adminUsername)
	}

	m.logger.Info("Auth module started", "database", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Auth module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.dbPath},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		return nil
	}

	if err := register(ServiceRegister, helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister)); err != nil {
		return err
	}
	if err := register(ServiceLogin, helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin)); err != nil {
		return err
	}
	if err := register(ServiceVerifyEmail, helper.RegisterTypedRequestReplyService(
		container, ServiceVerifyEmail, json.Unmarshal, json.Marshal, m.handleVerifyEmail)); err != nil {
		return err
	}
	if err := register(ServiceValidateToken, helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken)); err != nil {
		return err
	}
	if err := register(ServiceGetUser, helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser)); err != nil {
		return err
	}
	if err := register(ServiceSetAvatar, helper.RegisterTypedRequestReplyService(
		container, ServiceSetAvatar, json.Unmarshal, json.Marshal, m.handleSetAvatar)); err != nil {
		return err
	}

	m.logger.Info("Registered auth services",
		"services", "register, login, verify-email, validate-token, get-user, set-avatar")
	return nil
}

func (m *Module) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return RegisterResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *Module) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	result, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return LoginResponse{
		Token:     result.Token,
		UserID:    result.UserID,
		Username:  result.Username,
		AvatarURL: result.AvatarURL,
	}, nil
}

func (m *Module) handleVerifyEmail(ctx context.Context, req VerifyEmailRequest, _ *mono.Msg) (VerifyEmailResponse, error) {
	user, err := m.service.VerifyEmail(ctx, req.Token)
	if err != nil {
		return VerifyEmailResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return VerifyEmailResponse{UserID: user.ID, Username: user.Username}, nil
}

// handleValidateToken returns a response, not an error, for validation
// failures.
func (m *Module) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

func (m *Module) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return GetUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *Module) handleSetAvatar(ctx context.Context, req SetAvatarRequest, _ *mono.Msg) (SetAvatarResponse, error) {
	user, err := m.service.SetAvatar(ctx, req.UserID, req.AvatarURL)
	if err != nil {
		return SetAvatarResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = *user.AvatarURL
	}
	return SetAvatarResponse{AvatarURL: avatarURL}, nil
}

// codeFor maps domain errors onto wire codes. Unknown errors count as store
// failures and surface as a transport-level error string without a code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUserExists):
		return CodeConflict
	case errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthorized
	case errors.Is(err, ErrNotVerified):
		return CodeForbidden
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrWeakPassword), errors.Is(err, ErrPasswordTooLong):
		return CodeValidation
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		return CodeInvalidToken
	default:
		return ""
	}
}

// loadJWTConfig loads JWT configuration from environment variables.
func loadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.SecretKey = secret
	}

	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	return config
}
