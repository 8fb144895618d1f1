package service

import (
	"EdVix/internal/pkg/chat"
	"EdVix/internal/pkg/otp"
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	TooManyRequests     = 429
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrUserNotFound            = errors.New("用户不存在")
	ErrUserBan                 = errors.New("用户已被封禁")
	ErrUserExist               = errors.New("用户已存在")
	ErrUserEmailExist          = errors.New("邮箱已注册")
	ErrPasswordIncorrect       = errors.New("密码错误")
	ErrCodeIncorrect           = fmt.Errorf("%w", otp.ErrInvalidCode)
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrFileNotSupported        = errors.New("不支持的文件类型")
	ErrSysBoxNotFound          = errors.New("系统通知不存在")
	ErrRoleInvalid             = errors.New("角色无效")
	ErrSessionMissing          = errors.New("缺少会话标识")
	ErrTooManySessions         = errors.New("验证请求过多，请稍后重试")
	ErrNoticeKeyInvalid        = errors.New("提示标识无效")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrUserNotFound:            NotFound,
	ErrUserBan:                 Unauthorized,
	ErrUserExist:               BadRequest,
	ErrUserEmailExist:          BadRequest,
	ErrPasswordIncorrect:       Unauthorized,
	ErrCodeIncorrect:           Unauthorized,
	ErrMissingLoginCredentials: Unauthorized,
	ErrFileNotSupported:        BadRequest,
	ErrSysBoxNotFound:          NotFound,
	ErrRoleInvalid:             BadRequest,
	ErrSessionMissing:          BadRequest,
	ErrTooManySessions:         TooManyRequests,
	ErrNoticeKeyInvalid:        BadRequest,
	UnauthorizedError:          Forbidden,
	UnExpectedError:            InternalServerError,

	chat.ErrNotFound:          NotFound,
	chat.ErrNotMember:         Forbidden,
	chat.ErrMessageEmpty:      BadRequest,
	chat.ErrTargetUserInvalid: BadRequest,

	otp.ErrInvalidPhone:      BadRequest,
	otp.ErrInvalidCode:       Unauthorized,
	otp.ErrCodeExpired:       Unauthorized,
	otp.ErrCooldownActive:    TooManyRequests,
	otp.ErrAlreadyInProgress: Conflict,
	otp.ErrInvalidState:      Conflict,
	otp.ErrTooManyAttempts:   TooManyRequests,
	otp.ErrSessionReset:      Conflict,
}

// ErrorCode 按 errors.Is 解析业务码，包装过的错误同样适用
func ErrorCode(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}
