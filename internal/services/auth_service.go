package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kohisync_backend/internal/models"
	"kohisync_backend/internal/repositories"
	"kohisync_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest DTO
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"` // "admin" or "staff"; defaults to staff
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	// ListUsers returns every account, newest first, without password hashes.
	ListUsers(ctx context.Context) ([]models.User, error)
	// EnsureAdmin creates the given admin account when no users exist yet.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// --- authService Implementation ---
type authService struct {
	users  repositories.UserRepository
	tokens *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(store repositories.Store, tokens *utils.TokenManager) AuthService {
	return &authService{users: store.Users(), tokens: tokens}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, fmt.Errorf("%w: unknown role '%s'", ErrValidation, req.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashed),
		FullName:     trimmedOrNil(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrUsernameExists, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	fullName := "Administrator"
	if _, err := s.CreateUser(ctx, CreateUserRequest{
		Username: username,
		Password: password,
		FullName: &fullName,
		Role:     models.RoleAdmin,
	}); err != nil {
		return err
	}
	utils.LogWarn("created initial admin account; change its password", map[string]interface{}{"username": username})
	return nil
}
