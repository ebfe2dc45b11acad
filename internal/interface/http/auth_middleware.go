package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/synergy-circle/internal/domain/access"
)

const claimsContextKey = "access_claims"

var (
	errMissingBearer = errors.New("missing authorization header")
	errMalformedAuth = errors.New("authorization header must be: Bearer <token>")
)

// requireAccessToken guards the analysis API with a bearer token issued by
// cmd/tokengen. Without a configured secret every request passes.
func requireAccessToken(svc access.Service) gin.HandlerFunc {
	if svc == nil || !svc.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="synergy-circle"`)
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", err.Error(), err))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, fromAppError(err))
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errMalformedAuth
	}
	return token, nil
}

// callerSubject is the token subject of an authenticated request, or "anonymous".
func callerSubject(c *gin.Context) string {
	if value, ok := c.Get(claimsContextKey); ok {
		if claims, ok := value.(access.Claims); ok && claims.Subject != "" {
			return claims.Subject
		}
	}
	return "anonymous"
}
