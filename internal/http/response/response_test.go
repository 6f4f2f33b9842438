package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yungbote/roadmap-backend/internal/platform/apierr"
)

func render(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	fn(c)
	return rec
}

func TestRespondAPIError(t *testing.T) {
	rec := render(func(c *gin.Context) {
		RespondAPIError(c, apierr.NewWithMessage(http.StatusBadRequest, "bad_request", "missing", nil), "fallback")
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())

	rec = render(func(c *gin.Context) {
		RespondAPIError(c, apierr.NewWithMessage(http.StatusInternalServerError, "x", "Failed", errors.New("boom")), "fallback")
	})
	assert.JSONEq(t, `{"error":"Failed","details":"boom"}`, rec.Body.String())
}

func TestRespondAPIErrorPlainError(t *testing.T) {
	rec := render(func(c *gin.Context) {
		RespondAPIError(c, errors.New("db down"), "Some error occurred")
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Some error occurred","details":"db down"}`, rec.Body.String())
}

func TestRespondAPIErrorRecordsCause(t *testing.T) {
	var recorded int
	render(func(c *gin.Context) {
		RespondAPIError(c, errors.New("db down"), "Some error occurred")
		recorded = len(c.Errors)
	})
	assert.Equal(t, 1, recorded)
}

func TestRespondError(t *testing.T) {
	rec := render(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "not_found", nil)
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"unknown error","code":"not_found"}}`, rec.Body.String())
}
