package middleware

import (
	"EdVix/internal/pkg/consts"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", traceIDHeader, consts.SessionIDKey}, ", ")
	corsExposeHeaders = strings.Join([]string{"Content-Length", "Content-Type", traceIDHeader, consts.SessionIDKey}, ", ")
)

// CORSMiddleware 处理跨域请求，allowedOrigins 为空时允许任意来源
func CORSMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		// 处理浏览器的 OPTIONS 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
