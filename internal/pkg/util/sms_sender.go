package util

import (
	"EdVix/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const smsSuccessResp = "0"

// SMSSender 通过短信网关下发验证码
type SMSSender struct {
	cfg    config.SMSConfig
	client *resty.Client
}

func NewSMSSender(cfg config.SMSConfig) *SMSSender {
	return &SMSSender{
		cfg:    cfg,
		client: resty.New().SetTimeout(10 * time.Second),
	}
}

// SendCode 网关返回 "0" 视为成功
func (s *SMSSender) SendCode(ctx context.Context, phone, code string) error {
	content := fmt.Sprintf("【EdVix】您的验证码为 %s ，10分钟内有效。", code)

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"u": s.cfg.Username,
			"p": s.cfg.ApiKey,
			"m": phone,
			"c": content,
		}).
		Get(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms send failed: %s", resp.Status())
	}
	body := strings.TrimSpace(resp.String())
	if body != smsSuccessResp {
		return fmt.Errorf("sms send failed: response code %s", body)
	}
	log.InfoContext(ctx, "短信验证码已发送", "phone", maskTarget(phone))
	return nil
}

// maskTarget 日志中隐藏手机号/邮箱中段
func maskTarget(target string) string {
	if len(target) <= 4 {
		return "****"
	}
	return target[:3] + "****" + target[len(target)-2:]
}
