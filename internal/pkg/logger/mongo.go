package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const maxMongoCmdLen = 1000

// 心跳与会话类命令不记录
var quietMongoCommands = map[string]bool{
	"hello":       true,
	"isMaster":    true,
	"ping":        true,
	"endSessions": true,
}

// NewMongoMonitor 会话快照写入频繁，命令详情只在 Debug 级别输出
func NewMongoMonitor(slowThreshold time.Duration) *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			if quietMongoCommands[evt.CommandName] {
				return
			}
			cmdStr := evt.Command.String()
			if len(cmdStr) > maxMongoCmdLen {
				cmdStr = cmdStr[:maxMongoCmdLen] + "...[truncated]"
			}
			log.DebugContext(ctx, "MongoDB Started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.Int64("request_id", evt.RequestID),
				log.String("cmd_detail", cmdStr),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if quietMongoCommands[evt.CommandName] {
				return
			}
			fields := []any{
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
			}
			if slowThreshold > 0 && evt.Duration > slowThreshold {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
			} else {
				log.DebugContext(ctx, "MongoDB Success", fields...)
			}
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.Any("err", evt.Failure),
			)
		},
	}
}
