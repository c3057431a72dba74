package middleware

import (
	"net/http"

	"hospital-system/internal/utils"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "hospital_session"

// Context keys set by RequireSession.
const (
	ContextUserID   = "user_id"
	ContextUserNome = "user_nome"
	ContextUserTipo = "user_tipo"
)

// RequireSession rejects requests without a valid session cookie.
func RequireSession(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			abortUnauthenticated(c)
			return
		}
		claims, err := utils.ParseSessionToken(secret, raw)
		if err != nil {
			abortUnauthenticated(c)
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserNome, claims.Nome)
		c.Set(ContextUserTipo, claims.Tipo)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":  "Usuário não autenticado",
		"status": "auth_required",
	})
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
