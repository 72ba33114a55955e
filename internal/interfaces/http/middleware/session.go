// internal/interfaces/http/middleware/session.go
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/pkg/auth"
)

const sessionCookie = "session_id"

// Session resolves the cart session identity for every request.
// Resolution order: authenticated user, X-Session-ID header, session
// cookie, freshly minted ID set as a cookie. Logged-in users get a
// stable identity derived from their user ID so their cart follows
// them across devices.
func Session(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		sessionID := ""

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if tokenString := auth.ExtractTokenFromHeader(authHeader); tokenString != "" {
				if claims, err := jwtManager.ValidateAccessToken(tokenString); err == nil {
					sessionID = fmt.Sprintf("user:%d", claims.UserID)
					c.Set("user_id", claims.UserID)
					c.Set("user_email", claims.Email)
					c.Set("is_admin", claims.IsAdmin)
				}
			}
		}

		if sessionID == "" {
			sessionID = c.GetHeader("X-Session-ID")
		}

		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				sessionID = cookie
			}
		}

		if sessionID == "" {
			sessionID = uuid.New().String()
			maxAge := int(cfg.Checkout.CartTTL.Seconds())
			c.SetCookie(sessionCookie, sessionID, maxAge, "/", "", cfg.IsProduction(), true)
		}

		c.Set("session_id", sessionID)
		c.Next()
	}
}

// GetSessionIDFromContext extracts the resolved session ID
func GetSessionIDFromContext(c *gin.Context) string {
	if sessionID, exists := c.Get("session_id"); exists {
		return sessionID.(string)
	}
	return ""
}
