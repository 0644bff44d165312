package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 carrying the request id, so a
// dashboard user can quote it when reporting the failure.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			event := log.Error().
				Interface("panic", r).
				Str("route", c.FullPath()).
				Str(requestIDKey, GetRequestID(c))
			if sess, ok := CurrentSession(c); ok {
				event = event.Str("user", sess.User)
			}
			event.Bytes("stack", debug.Stack()).Msg("handler panicked")

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal_error",
				"request_id": GetRequestID(c),
			})
		}()
		c.Next()
	}
}
