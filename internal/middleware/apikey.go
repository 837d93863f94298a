package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maukemana/photocore/internal/utils"
)

// APIKeyAuth replaces the teacher's Clerk bearer-token AuthMiddleware:
// the worker's §6.3 surface is called by the web tier, not an end user,
// so it is secured by a single shared secret compared in constant time
// rather than a verified JWT.
func APIKeyAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			utils.SendError(c, http.StatusInternalServerError, "server misconfigured: WORKER_API_KEY not set", nil)
			return
		}

		got := c.GetHeader("X-API-Key")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			utils.SendError(c, http.StatusUnauthorized, "invalid or missing X-API-Key", nil)
			return
		}

		c.Next()
	}
}
