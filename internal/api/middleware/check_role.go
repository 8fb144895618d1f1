package middleware

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/response"
	log "log/slog"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 当前用户至少拥有一个指定角色才放行，需挂在 AuthMiddleware 之后
func CheckRoles(requiredRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(consts.CtxRoles)

		allowed := slices.ContainsFunc(requiredRoles, func(r model.Role) bool {
			return slices.Contains(roles, string(r))
		})
		if !allowed {
			log.WarnContext(c.Request.Context(), "role check rejected", "path", c.FullPath(), "roles", roles)
			response.Fail(c, response.Forbidden, "权限不足，无权访问该资源")
			c.Abort()
			return
		}

		c.Next()
	}
}
