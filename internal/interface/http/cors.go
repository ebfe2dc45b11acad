package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const corsPreflightMaxAge = "600"

// corsMiddleware lets browser front-ends on the configured origins call the API.
// With no origins configured every origin is allowed.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			headers.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			headers.Add("Vary", "Origin")
			if _, ok := origins[strings.ToLower(origin)]; ok {
				headers.Set("Access-Control-Allow-Origin", origin)
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
		headers.Set("Access-Control-Max-Age", corsPreflightMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}
