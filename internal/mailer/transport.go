package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"inviteme/backend/internal/config"
)

// Transport 邮件投递接口
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPTransport 通过外部 SMTP 服务器投递邮件
type SMTPTransport struct {
	addr        string
	username    string
	password    string
	disableAuth bool
}

// NewSMTPTransport 创建 SMTP 投递器
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{
		addr:        cfg.Addr,
		username:    cfg.Username,
		password:    cfg.Password,
		disableAuth: cfg.DisableAuth,
	}
}

// Send 投递一封邮件
// SendMail 本身不接受 context，这里在投递前检查取消状态
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := msg.Render()
	if err != nil {
		return fmt.Errorf("render message: %w", err)
	}

	var auth sasl.Client
	if !t.disableAuth {
		auth = sasl.NewPlainClient("", t.username, t.password)
	}

	if err := gosmtp.SendMail(t.addr, auth, msg.From, msg.To, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp send to %v: %w", msg.To, err)
	}
	return nil
}
