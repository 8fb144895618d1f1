package util

import (
	"EdVix/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// MailSender 通过 Mailgun 发送邮箱验证码
type MailSender struct {
	mg     mailgun.Mailgun
	sender string
}

func NewMailSender(cfg config.MailgunConfig) *MailSender {
	return &MailSender{
		mg:     mailgun.NewMailgun(cfg.Domain, cfg.ApiKey),
		sender: cfg.Sender,
	}
}

func (s *MailSender) SendCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("您的 EdVix 验证码为 %s ，10分钟内有效。如非本人操作请忽略。", code)
	msg := s.mg.NewMessage(s.sender, "EdVix 验证码", body, email)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, id, err := s.mg.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	log.InfoContext(ctx, "邮箱验证码已发送", "email", maskTarget(email), "id", id)
	return nil
}
