package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/apperrors"
)

// ErrorHandler renders the last error a handler pushed with c.Error as
// {"message": ...} with the status of its kind.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperrors.StatusCode(err)
		if status >= 500 {
			log.Error("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Error(err))
		} else {
			log.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, gin.H{"message": apperrors.PublicMessage(err)})
	}
}
