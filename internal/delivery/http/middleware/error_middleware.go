package middleware

import (
	"errors"
	"net/http"

	"candidate-tracker-backend/internal/delivery/http/response"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed", "request_id", c.GetString("RequestID"), "path", c.FullPath(), "error", appErr.Err)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Kind, appErr.Details)
			return
		}

		// Internal details never reach the client
		logger.Log.Error("Internal Server Error", "request_id", c.GetString("RequestID"), "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", apperror.KindInternal, nil)
	}
}
