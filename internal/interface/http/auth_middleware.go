package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// authMiddleware accepts "Authorization: Bearer <key>" for any configured key. With no keys
// configured every request passes.
func authMiddleware(keys []string) gin.HandlerFunc {
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		token := []byte(strings.TrimSpace(parts[1]))
		for i, key := range keys {
			if subtle.ConstantTimeCompare(token, []byte(key)) == 1 {
				setClient(c, fmt.Sprintf("key-%d", i))
				c.Next()
				return
			}
		}
		abortWithError(c, NewHTTPError(http.StatusForbidden, "invalid_token", "api key not recognized", nil))
	}
}
