package logger

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/pkg/consts"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 访问日志与 panic 恢复
func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: []string{"/api/ping"},
		Formatter: func(p gin.LogFormatterParams) string {
			var traceID, sessionID string
			var userID uint64
			if p.Keys != nil {
				traceID, _ = p.Keys[TraceIDKey].(string)
				sessionID, _ = p.Keys[consts.SessionIDKey].(string)
				userID, _ = p.Keys[consts.CtxUserID].(uint64)
			}
			if traceID == "" && p.Request != nil {
				traceID, _ = p.Request.Context().Value(TraceIDKey).(string)
			}

			return fmt.Sprintf(
				`{"time":"%s","level":"INFO","msg":"GIN_ACCESS","trace_id":"%s","session_id":"%s","user_id":%d,"log_token":"%s","target_index":"%s","method":"%s","path":"%s","status":%d,"latency":"%v"}`+"\n",
				p.TimeStamp.Format(time.RFC3339),
				traceID,
				sessionID,
				userID,
				logToken,
				logIndex,
				p.Method,
				p.Path,
				p.StatusCode,
				p.Latency,
			)
		},
	}))

	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		log.ErrorContext(c.Request.Context(), "panic recovered", "path", c.Request.URL.Path, "err", err)
		c.AbortWithStatusJSON(http.StatusOK, dto.Response{
			Code:    http.StatusInternalServerError,
			Message: "服务器内部错误",
		})
	}))
}
