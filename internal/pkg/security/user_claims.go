package security

import (
	"EdVix/internal/api/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultJWTSecret         string = "EdVix"
	defaultJWTIssuer         string = "EdVix"
	defaultJWTExpirationTime        = time.Hour * 24
)

// UserClaims 定义了 Token 中需要包含的业务信息
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// jwtSettings 读取配置，未加载配置时(如单元测试)使用默认值
func jwtSettings() (secret []byte, issuer string, ttl time.Duration) {
	secret, issuer, ttl = []byte(defaultJWTSecret), defaultJWTIssuer, defaultJWTExpirationTime
	if config.Cfg == nil {
		return
	}
	cfg := config.Cfg.JWT
	if cfg.Secret != "" {
		secret = []byte(cfg.Secret)
	}
	if cfg.Issuer != "" {
		issuer = cfg.Issuer
	}
	if cfg.ExpireHours > 0 {
		ttl = time.Duration(cfg.ExpireHours) * time.Hour
	}
	return
}
