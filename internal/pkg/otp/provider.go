package otp

import (
	"context"
	"fmt"
	"time"
)

// Kind 验证码用途
type Kind string

const (
	KindSMS         Kind = "sms"
	KindEmail       Kind = "email"
	KindPhoneChange Kind = "phone_change"
)

// AuthResult 验证通过后认证方返回的凭据
type AuthResult struct {
	Token      string    `json:"token"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// Provider 外部认证方，验证码不匹配时返回的错误须能 errors.Is(err, ErrInvalidCode)
type Provider interface {
	SignInWithCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone string, code string, kind Kind) (*AuthResult, error)
}

// StaticProvider 开发环境替身：全局固定验证码，可模拟网络延迟
type StaticProvider struct {
	Code    string
	Latency time.Duration
}

func NewStaticProvider(code string, latency time.Duration) *StaticProvider {
	return &StaticProvider{Code: code, Latency: latency}
}

func (p *StaticProvider) SignInWithCode(ctx context.Context, _ string) error {
	return p.wait(ctx)
}

func (p *StaticProvider) VerifyCode(ctx context.Context, phone string, code string, _ Kind) (*AuthResult, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if code != p.Code {
		return nil, ErrInvalidCode
	}
	return &AuthResult{
		Token:      fmt.Sprintf("static:%s", phone),
		VerifiedAt: time.Now(),
	}, nil
}

func (p *StaticProvider) wait(ctx context.Context) error {
	if p.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
