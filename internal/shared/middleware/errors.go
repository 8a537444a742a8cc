package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/response"
)

// Errors is the single place where errors attached with c.Error become HTTP responses.
// Handlers call c.Error(err) and return; the last error wins.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperror.As(err)

		if appErr.Kind.Status() >= 500 {
			log.Error().
				Err(err).
				Str("request_id", GetRequestID(c)).
				Str("path", c.Request.URL.Path).
				Str("code", appErr.Kind.Code()).
				Msg("Request failed")
		}

		response.AppError(c, appErr)
	}
}

// Fail attaches err to the context and stops the chain
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
