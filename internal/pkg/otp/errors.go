package otp

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidPhone      = errors.New("手机号格式错误")
	ErrInvalidCode       = errors.New("验证码错误")
	ErrCodeExpired       = errors.New("验证码已过期，请重新获取")
	ErrCooldownActive    = errors.New("验证码发送过于频繁")
	ErrAlreadyInProgress = errors.New("验证正在进行中")
	ErrInvalidState      = errors.New("当前状态不允许该操作")
	ErrTooManyAttempts   = errors.New("验证码错误次数过多，请重新获取")
	ErrSessionReset      = errors.New("验证流程已重置")
)

// CooldownError 重发冷却未结束，携带剩余时间供展示
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("请在 %d 秒后重新发送", e.RemainingSeconds())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// RemainingSeconds 向上取整的剩余秒数
func (e *CooldownError) RemainingSeconds() int {
	return CeilSeconds(e.Remaining)
}

// CeilSeconds 向上取整到秒，负数按 0 处理
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
