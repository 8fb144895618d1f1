package logger

import (
	"EdVix/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

var LogWriter io.Writer = os.Stdout

// 访问日志直接写 LogWriter，需自带上报字段
var logToken, logIndex string

// InitLogger 标准输出始终开启，配置了 Logstash 且可连通时同时上报
func InitLogger(cfg config.LogstashConfig) {
	opts := &log.HandlerOptions{Level: parseLevel(cfg.Level), ReplaceAttr: redactAttr}
	hStdout := log.NewJSONHandler(os.Stdout, opts)

	var finalHandler log.Handler = hStdout
	LogWriter = os.Stdout

	if cfg.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Address, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, opts).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Index),
					log.String("log_token", cfg.Token),
				})
			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
			}
			LogWriter = conn
			logToken, logIndex = cfg.Token, cfg.Index
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
