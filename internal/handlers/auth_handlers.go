package handlers

import (
	"net/http"

	"kohisync_backend/internal/middleware"
	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser exchanges operator credentials for an access token.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "LoginUser", err)
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "LoginUser", err, "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, "GetCurrentUser", err, "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser registers a new operator account. Admin only.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateUser", err)
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateUser", err, "Failed to create user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers returns every operator account. Admin only.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, "ListUsers", err, "Failed to list users.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
