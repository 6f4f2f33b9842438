package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/roadmap-backend/internal/http/response"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/services"
)

type OAuthHandler struct {
	log             *logger.Logger
	oauthService    services.OAuthService
	successRedirect string
	failureRedirect string
}

func NewOAuthHandler(log *logger.Logger, oauthService services.OAuthService, successRedirect, failureRedirect string) *OAuthHandler {
	if successRedirect == "" {
		successRedirect = "/dashboard"
	}
	if failureRedirect == "" {
		failureRedirect = "/login"
	}
	return &OAuthHandler{
		log:             log.With("handler", "OAuthHandler"),
		oauthService:    oauthService,
		successRedirect: successRedirect,
		failureRedirect: failureRedirect,
	}
}

// GET /auth/:provider
func (h *OAuthHandler) Begin(c *gin.Context) {
	target, err := h.oauthService.AuthURL(c.Request.Context(), c.Param("provider"))
	switch {
	case errors.Is(err, services.ErrProviderUnknown):
		c.JSON(http.StatusNotFound, response.MessageEnvelope{Error: err.Error()})
		return
	case err != nil:
		h.log.Error("OAuth begin failed", "provider", c.Param("provider"), "error", err)
		c.JSON(http.StatusInternalServerError, response.MessageEnvelope{Error: "Failed to start login", Details: err.Error()})
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GET /auth/:provider/callback
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	if reason := c.Query("error"); reason != "" {
		h.log.Warn("OAuth provider returned an error", "provider", provider, "reason", reason)
		c.Redirect(http.StatusFound, h.failureRedirect)
		return
	}
	pair, err := h.oauthService.HandleCallback(c.Request.Context(), provider, c.Query("code"), c.Query("state"))
	if err != nil {
		h.log.Warn("OAuth callback rejected", "provider", provider, "error", err)
		c.Redirect(http.StatusFound, h.failureRedirect)
		return
	}
	target, err := withQuery(h.successRedirect, "token", pair.AccessToken)
	if err != nil {
		h.log.Error("Invalid OAuth success redirect", "error", err)
		c.Redirect(http.StatusFound, h.failureRedirect)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
