package middleware

import (
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/redis"
	"EdVix/internal/pkg/response"
	"EdVix/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		// 已注销的令牌
		value, err := redis.GetValue(c.Request.Context(), consts.JwtDenyKey+signature)
		if err != nil {
			response.Fail(c, response.InternalServerError, "未知错误")
			c.Abort()
			return
		}
		if value != "" {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(consts.CtxUserID, claims.UserID)
		c.Set(consts.CtxRoles, claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), consts.CtxUserID, claims.UserID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}
