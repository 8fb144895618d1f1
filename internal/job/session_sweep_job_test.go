package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingEvicter struct {
	calls []time.Duration
}

func (c *countingEvicter) EvictIdle(_ context.Context, idle time.Duration) int {
	c.calls = append(c.calls, idle)
	return 1
}

func TestSessionSweepJob_Run(t *testing.T) {
	otp := &countingEvicter{}
	chat := &countingEvicter{}
	disabled := &countingEvicter{}

	NewSessionSweepJob(
		SessionSweeper{Name: "otp", Target: otp, IdleTTL: 30 * time.Minute},
		SessionSweeper{Name: "chat", Target: chat, IdleTTL: time.Hour},
		SessionSweeper{Name: "off", Target: disabled},
	).Run()

	assert.Equal(t, []time.Duration{30 * time.Minute}, otp.calls)
	assert.Equal(t, []time.Duration{time.Hour}, chat.calls)
	assert.Empty(t, disabled.calls)
}
