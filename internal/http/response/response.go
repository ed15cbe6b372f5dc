package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/platform/apierr"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := strings.ToLower(http.StatusText(status))
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

// RespondServiceError classifies a service error and renders it. Server-side failures are
// logged with the request's trace id before the generic message goes out.
func RespondServiceError(c *gin.Context, log *logger.Logger, err error) {
	apiErr := apierr.FromError(err)
	if apiErr.Status >= http.StatusInternalServerError && log != nil {
		log.WithContext(c.Request.Context()).Error("Request failed", "route", c.FullPath(), "error", err)
	}
	RespondError(c, apiErr.Status, apiErr.Code, apiErr)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
