package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/roadmap-backend/internal/http/response"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName       string `json:"firstName"`
		LastName        string `json:"lastName"`
		Contact         string `json:"contact"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body", "error": true})
		return
	}
	user, err := ah.authService.RegisterUser(c.Request.Context(), services.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Contact:         req.Contact,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	switch {
	case errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "error": true})
		return
	case err != nil:
		ah.log.Error("Registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error(), "error": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"data":    user,
		"success": true,
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"authentication": false, "message": "invalid request body"})
		return
	}
	pair, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"authentication": false, "message": "User not found."})
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"authentication": false, "message": "Invalid credentials."})
		return
	case err != nil:
		ah.log.Error("Login failed", "error", err)
		response.RespondAPIError(c, err, "Some error occurred")
		return
	}
	respondTokens(c, pair)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&req)
	pair, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"authentication": false, "message": "Invalid refresh token."})
		return
	case err != nil:
		ah.log.Error("Refresh failed", "error", err)
		response.RespondAPIError(c, err, "Some error occurred")
		return
	}
	respondTokens(c, pair)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	err := ah.authService.LogoutUser(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	case err != nil:
		response.RespondError(c, http.StatusInternalServerError, "logout_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func respondTokens(c *gin.Context, pair services.TokenPair) {
	response.RespondOK(c, gin.H{
		"authentication": true,
		"token":          pair.AccessToken,
		"refreshToken":   pair.RefreshToken,
		"expiresIn":      pair.ExpiresIn,
	})
}
