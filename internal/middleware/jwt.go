package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/civiclens/internal/pkg/errcode"
	"github.com/xxxsen/civiclens/internal/pkg/jwt"
	"github.com/xxxsen/civiclens/internal/pkg/response"
)

const (
	ContextSubjectKey = "subject"
	ContextRoleKey    = "role"
	RoleAdmin         = "admin"
)

// JWTAuth accepts HS256 bearer tokens whose role matches role (any role when empty).
func JWTAuth(secret []byte, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			response.Error(c, errcode.ErrForbidden, "admin api disabled")
			c.Abort()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if role != "" && claims.Role != role {
			response.Error(c, errcode.ErrForbidden, "forbidden")
			c.Abort()
			return
		}
		c.Set(ContextSubjectKey, claims.Subject)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}
