package middleware

import (
	"errors"
	"strings"

	"LinkChat/tools/errs"
	"LinkChat/tools/security"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// —— context key ——
// 下游 handler 统一用这个 key 读取当前用户ID
const CtxUserIDKey = "userID"

const sessionCookie = "jwt"

// Auth resolves the session token (cookie first, then Authorization:
// Bearer) and aborts unauthenticated requests.
func Auth(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			token = cookie
		}
		if token == "" {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			abortWith(c, errs.ErrUnauthorized)
			return
		}

		userID, err := security.Verify(opts, token)
		if err != nil {
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				abortWith(c, errs.ErrTokenExpired)
			} else {
				abortWith(c, errs.ErrUnauthorized.WithDetail("invalid token"))
			}
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func abortWith(c *gin.Context, e errs.CodeError) {
	c.AbortWithStatusJSON(errs.HTTPStatus(e), e)
}
