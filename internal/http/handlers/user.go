package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/roadmap-backend/internal/http/response"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type UserHandler struct {
	userService   services.UserService
	avatarService services.AvatarService
}

func NewUserHandler(userService services.UserService, avatarService services.AvatarService) *UserHandler {
	return &UserHandler{userService: userService, avatarService: avatarService}
}

// GET /dashboard
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	case errors.Is(err, services.ErrInvalidToken):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	case err != nil:
		response.RespondError(c, http.StatusInternalServerError, "load_user_failed", err)
		return
	}
	response.RespondOK(c, me)
}

// GET /users/:id/avatar
func (uh *UserHandler) GetAvatar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	png, err := uh.avatarService.GetUserAvatar(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrAvatarNotFound):
		response.RespondError(c, http.StatusNotFound, "avatar_not_found", err)
		return
	case err != nil:
		response.RespondError(c, http.StatusInternalServerError, "load_avatar_failed", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}
