package otp

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status 验证流程状态
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSending      Status = "sending"
	StatusAwaitingCode Status = "awaiting_code"
	StatusVerifying    Status = "verifying"
	StatusVerified     Status = "verified"
	StatusFailed       Status = "failed"
)

const (
	DefaultCooldown    = 30 * time.Second
	DefaultCodeLength  = 6
	DefaultMaxAttempts = 5
)

// Session 流程状态快照
type Session struct {
	PhoneNumber       string
	Status            Status
	ResendAvailableAt time.Time
	LastError         error
	Attempts          int
	Result            *AuthResult
}

// Flow 手机号验证状态机
// idle -> sending -> awaiting_code -> verifying -> verified | awaiting_code(附带错误)
// 同一时刻只允许一个外部调用在途，状态只在外部调用返回后修改
type Flow struct {
	mu          sync.Mutex
	provider    Provider
	now         func() time.Time
	cooldown    time.Duration
	codeLength  int
	maxAttempts int
	kind        Kind

	session  Session
	inflight bool
	gen      uint64 // Reset 时递增，用于丢弃过期的在途结果
}

type Option func(*Flow)

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func WithCooldown(d time.Duration) Option {
	return func(f *Flow) { f.cooldown = d }
}

func WithCodeLength(n int) Option {
	return func(f *Flow) { f.codeLength = n }
}

// WithMaxAttempts 连续输错次数上限，达到后流程进入 failed
func WithMaxAttempts(n int) Option {
	return func(f *Flow) { f.maxAttempts = n }
}

func WithKind(kind Kind) Option {
	return func(f *Flow) { f.kind = kind }
}

func NewFlow(provider Provider, opts ...Option) *Flow {
	f := &Flow{
		provider:    provider,
		now:         time.Now,
		cooldown:    DefaultCooldown,
		codeLength:  DefaultCodeLength,
		maxAttempts: DefaultMaxAttempts,
		kind:        KindSMS,
		session:     Session{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StartVerification 发送验证码，仅允许在 idle 或 failed 状态下调用
func (f *Flow) StartVerification(ctx context.Context, phone string) error {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.inflight {
		f.mu.Unlock()
		return ErrAlreadyInProgress
	}
	if f.session.Status != StatusIdle && f.session.Status != StatusFailed {
		f.mu.Unlock()
		return ErrInvalidState
	}
	f.session = Session{PhoneNumber: normalized, Status: StatusSending}
	gen := f.begin()
	f.mu.Unlock()

	err = f.provider.SignInWithCode(ctx, normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settle(gen) {
		return ErrSessionReset
	}
	if err != nil {
		f.session.Status = StatusFailed
		f.session.LastError = err
		return err
	}
	f.session.Status = StatusAwaitingCode
	f.session.ResendAvailableAt = f.now().Add(f.cooldown)
	return nil
}

// ResendCode 冷却结束后重新发送，成功后重新开始冷却
func (f *Flow) ResendCode(ctx context.Context) error {
	f.mu.Lock()
	if f.inflight {
		f.mu.Unlock()
		return ErrAlreadyInProgress
	}
	if f.session.Status != StatusAwaitingCode {
		f.mu.Unlock()
		return ErrInvalidState
	}
	if remaining := Remaining(f.session.ResendAvailableAt, f.now()); remaining > 0 {
		f.mu.Unlock()
		return &CooldownError{Remaining: remaining}
	}
	f.session.LastError = nil
	phone := f.session.PhoneNumber
	gen := f.begin()
	f.mu.Unlock()

	err := f.provider.SignInWithCode(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settle(gen) {
		return ErrSessionReset
	}
	if err != nil {
		f.session.LastError = err
		return err
	}
	f.session.Attempts = 0
	f.session.ResendAvailableAt = f.now().Add(f.cooldown)
	return nil
}

// VerifyOTP 校验验证码，格式不符时不会请求认证方
func (f *Flow) VerifyOTP(ctx context.Context, code string) (*AuthResult, error) {
	f.mu.Lock()
	if f.inflight {
		f.mu.Unlock()
		return nil, ErrAlreadyInProgress
	}
	if f.session.Status != StatusAwaitingCode {
		f.mu.Unlock()
		return nil, ErrInvalidState
	}
	if !ValidCode(code, f.codeLength) {
		f.mu.Unlock()
		return nil, ErrInvalidCode
	}
	f.session.Status = StatusVerifying
	f.session.LastError = nil
	phone := f.session.PhoneNumber
	gen := f.begin()
	f.mu.Unlock()

	res, err := f.provider.VerifyCode(ctx, phone, code, f.kind)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settle(gen) {
		return nil, ErrSessionReset
	}

	switch {
	case err == nil:
		f.session.Status = StatusVerified
		f.session.Result = res
		return res, nil
	case errors.Is(err, ErrCodeExpired):
		f.session.Status = StatusFailed
		f.session.LastError = ErrCodeExpired
		return nil, ErrCodeExpired
	case errors.Is(err, ErrInvalidCode):
		f.session.Attempts++
		if f.maxAttempts > 0 && f.session.Attempts >= f.maxAttempts {
			f.session.Status = StatusFailed
			f.session.LastError = ErrTooManyAttempts
			return nil, ErrTooManyAttempts
		}
		f.session.Status = StatusAwaitingCode
		f.session.LastError = ErrInvalidCode
		return nil, ErrInvalidCode
	default:
		f.session.Status = StatusAwaitingCode
		f.session.LastError = err
		return nil, err
	}
}

// Reset 回到 idle 并清空手机号与错误，在途调用的结果将被丢弃
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.inflight = false
	f.session = Session{Status: StatusIdle}
}

// Session 当前状态快照
func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.session
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

// RemainingCooldown 距离允许重发的剩余时间，按当前时钟实时计算
func (f *Flow) RemainingCooldown() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Status != StatusAwaitingCode {
		return 0
	}
	return Remaining(f.session.ResendAvailableAt, f.now())
}

// Remaining max(0, availableAt - now)
func Remaining(availableAt, now time.Time) time.Duration {
	if d := availableAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (f *Flow) begin() uint64 {
	f.inflight = true
	return f.gen
}

// settle 在途调用返回后调用，流程已被重置时返回 false
func (f *Flow) settle(gen uint64) bool {
	if gen != f.gen {
		return false
	}
	f.inflight = false
	return true
}
