package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/roadmap-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func AbortError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

// MessageEnvelope is the {error, details} body of the roadmap endpoints.
type MessageEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondAPIError renders err as a MessageEnvelope. Errors that are not *apierr.Error
// become a 500 with the given fallback message.
func RespondAPIError(c *gin.Context, err error, fallback string) {
	if err != nil {
		_ = c.Error(err)
	}
	ae, ok := apierr.As(err)
	if !ok {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		c.JSON(http.StatusInternalServerError, MessageEnvelope{Error: fallback, Details: detail})
		return
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	msg := ae.Message
	if msg == "" {
		msg = fallback
	}
	c.JSON(status, MessageEnvelope{Error: msg, Details: ae.Detail()})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
