package service

import (
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/redis"
	"EdVix/internal/pkg/util"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	codeLength       = 6
	defaultCodeTTL   = 10 * time.Minute
	checkTokenTTL    = 1 * time.Hour
	errNoCodeChannel = "未配置验证码通道: %s"
)

// CodeSender 验证码下发通道
type CodeSender interface {
	SendCode(ctx context.Context, target string, code string) error
}

// CodeService 服务端签发的验证码，按用途与接收方存放在 Redis
type CodeService interface {
	SendCode(ctx context.Context, target string, kind otp.Kind) error
	CheckCode(ctx context.Context, target string, code string, kind otp.Kind) (string, error)
	CheckToken(ctx context.Context, target string, token string) (bool, error)
	DelCheckToken(ctx context.Context, target string) error
}

type codeServiceImpl struct {
	senders  map[otp.Kind]CodeSender
	ttl      time.Duration
	testCode string
}

// NewCodeService testCode 非空时该验证码总能通过，仅用于开发环境
func NewCodeService(senders map[otp.Kind]CodeSender, ttl time.Duration, testCode string) CodeService {
	if ttl <= 0 {
		ttl = defaultCodeTTL
	}
	return &codeServiceImpl{
		senders:  senders,
		ttl:      ttl,
		testCode: testCode,
	}
}

func codeKey(kind otp.Kind, target string) string {
	return consts.OtpCodeKey + string(kind) + ":" + target
}

func (s *codeServiceImpl) SendCode(ctx context.Context, target string, kind otp.Kind) error {
	sender, ok := s.senders[kind]
	if !ok {
		return fmt.Errorf(errNoCodeChannel, kind)
	}
	code := util.GenerateCode(codeLength)
	if err := redis.SetWithExpiration(ctx, codeKey(kind, target), code, s.ttl); err != nil {
		return errors.Wrap(err, "save otp code")
	}
	if err := sender.SendCode(ctx, target, code); err != nil {
		// 发送失败则作废本次验证码，避免残留
		_ = redis.DeleteKey(ctx, codeKey(kind, target))
		return err
	}
	return nil
}

// CheckCode 校验通过后删除验证码，并签发一小时有效的校验令牌
func (s *codeServiceImpl) CheckCode(ctx context.Context, target string, code string, kind otp.Kind) (string, error) {
	if s.testCode == "" || code != s.testCode {
		stored, err := redis.GetValue(ctx, codeKey(kind, target))
		if err != nil {
			return "", errors.Wrap(err, "load otp code")
		}
		if stored == "" {
			return "", otp.ErrCodeExpired
		}
		if stored != code {
			return "", ErrCodeIncorrect
		}
		_ = redis.DeleteKey(ctx, codeKey(kind, target))
	} else {
		log.WarnContext(ctx, "test otp code accepted", "kind", kind)
	}

	token := uuid.NewString()
	if err := redis.SetWithExpiration(ctx, consts.OtpCheckTokenKey+target, token, checkTokenTTL); err != nil {
		return "", errors.Wrap(err, "save check token")
	}
	return token, nil
}

func (s *codeServiceImpl) CheckToken(ctx context.Context, target string, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	value, err := redis.GetValue(ctx, consts.OtpCheckTokenKey+target)
	if err != nil {
		return false, err
	}
	return value == token, nil
}

func (s *codeServiceImpl) DelCheckToken(ctx context.Context, target string) error {
	return redis.DeleteKey(ctx, consts.OtpCheckTokenKey+target)
}

// CodeProvider 让 otp.Flow 使用服务端签发的验证码，发送与校验使用同一用途
type CodeProvider struct {
	codes CodeService
	kind  otp.Kind
	now   func() time.Time
}

func NewCodeProvider(codes CodeService, kind otp.Kind) *CodeProvider {
	return &CodeProvider{codes: codes, kind: kind, now: time.Now}
}

func (p *CodeProvider) SignInWithCode(ctx context.Context, phone string) error {
	return p.codes.SendCode(ctx, phone, p.kind)
}

func (p *CodeProvider) VerifyCode(ctx context.Context, phone string, code string, _ otp.Kind) (*otp.AuthResult, error) {
	token, err := p.codes.CheckCode(ctx, phone, code, p.kind)
	if err != nil {
		return nil, err
	}
	return &otp.AuthResult{Token: token, VerifiedAt: p.now()}, nil
}
