package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroflow/agroflow-backend/internal/logger"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
)

// ErrorHandler turns errors collected on the context into uniform JSON
// responses. AppError carries its own status; everything else is masked as
// an internal error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("request error")
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
				return
			}

			c.JSON(500, gin.H{"error": "internal server error"})
		}
	}
}
