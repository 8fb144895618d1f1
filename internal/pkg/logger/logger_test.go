package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"testing"

	"EdVix/internal/pkg/consts"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+15******67", MaskPhone("+1555123467"))
	assert.Equal(t, "****", MaskPhone("1234"))
}

func TestContextHandler_RedactsAndInjects(t *testing.T) {
	var buf bytes.Buffer
	h := &ContextHandler{log.NewJSONHandler(&buf, &log.HandlerOptions{ReplaceAttr: redactAttr})}
	logger := log.New(h)

	ctx := context.WithValue(context.Background(), TraceIDKey, "t-1")
	ctx = context.WithValue(ctx, consts.CtxUserID, uint64(42))
	logger.InfoContext(ctx, "otp sent", "phone", "+15551234567", "code", "123456")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "t-1", rec[TraceIDKey])
	assert.EqualValues(t, 42, rec[consts.CtxUserID])
	assert.Equal(t, "[PROTECTED]", rec["code"])
	assert.Equal(t, "+15*******67", rec["phone"])
}

func TestFormatArgs(t *testing.T) {
	ctx := context.Background()
	get := redis.NewStringCmd(ctx, "get", "edvix:"+consts.OtpCodeKey+"sms:+15551234567")
	assert.Contains(t, formatArgs(get), "[PROTECTED]")

	auth := redis.NewStatusCmd(ctx, "auth", "secret")
	assert.Equal(t, "[PROTECTED]", formatArgs(auth))

	long := redis.NewStatusCmd(ctx, "set", "k", string(bytes.Repeat([]byte("a"), 1000)))
	assert.Contains(t, formatArgs(long), "...[truncated]")
}

func TestRemoteFilterHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &RemoteFilterHandler{next: log.NewJSONHandler(&buf, nil)}
	logger := log.New(h)

	logger.Info("no trace")
	assert.Zero(t, buf.Len())

	logger.Warn("warn without trace")
	assert.NotZero(t, buf.Len())
}
