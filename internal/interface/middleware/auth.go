package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
	"github.com/oksasatya/go-ddd-identity/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUserRole  = "userRole"
)

// Auth validates the access token and ensures an active session exists.
// The token is read from the Authorization header first, then from the
// access_token cookie.
func Auth(tokens service.TokenService, sessions application.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "missing access token")
			return
		}
		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			unauthorized(c, "invalid access token")
			return
		}

		if _, err := sessions.Get(c.Request.Context(), claims.UserID); err != nil {
			if errors.Is(err, application.ErrSessionNotFound) {
				unauthorized(c, "session not found")
				return
			}
			response.FromError(c, err)
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie("access_token")
	if err != nil {
		return ""
	}
	return token
}

func unauthorized(c *gin.Context, message string) {
	response.Abort(c, http.StatusUnauthorized, message, response.ErrorBody{
		Kind:  string(domainerr.KindAuthentication),
		Title: domainerr.KindAuthentication.Title(),
	})
}
