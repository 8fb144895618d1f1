package middleware

import (
	"EdVix/internal/pkg/consts"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionMiddleware 保证每个请求都带有客户端会话标识，缺失时生成并通过响应头返回
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(consts.SessionIDKey)
		if sessionID == "" || len(sessionID) > 64 {
			sessionID = uuid.NewString()
		}
		c.Set(consts.SessionIDKey, sessionID)
		c.Header(consts.SessionIDKey, sessionID)
		c.Next()
	}
}
