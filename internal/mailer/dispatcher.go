package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	texttemplate "text/template"

	"go.uber.org/zap"

	"inviteme/backend/internal/config"
	"inviteme/backend/internal/domain"
)

//go:embed templates/*.txt templates/*.html
var templateFS embed.FS

// Dispatcher 邀请流程的邮件分发器
type Dispatcher struct {
	transport Transport
	site      config.SiteConfig
	notify    config.NotifyConfig
	from      string
	logger    *zap.Logger

	textTemplates *texttemplate.Template
	htmlTemplates *htmltemplate.Template
}

// NewDispatcher 创建邮件分发器
func NewDispatcher(transport Transport, site config.SiteConfig, notify config.NotifyConfig, from string, logger *zap.Logger) (*Dispatcher, error) {
	textTemplates, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	htmlTemplates, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	return &Dispatcher{
		transport:     transport,
		site:          site,
		notify:        notify,
		from:          from,
		logger:        logger,
		textTemplates: textTemplates,
		htmlTemplates: htmlTemplates,
	}, nil
}

// confirmationData 确认邮件的模板数据
type confirmationData struct {
	SiteName     string
	SupportEmail string
	ConfirmURL   string
	Email        string
}

// SendConfirmationRequest 向提交者发送确认邮件
// 确认链接携带签名令牌，点击后完成邀请登记
func (d *Dispatcher) SendConfirmationRequest(ctx context.Context, sub domain.Submission, confirmURL string) error {
	data := confirmationData{
		SiteName:     d.site.Name,
		SupportEmail: d.site.SupportEmail,
		ConfirmURL:   confirmURL,
		Email:        sub.Email,
	}

	textBody, err := d.renderText("confirmation_request.txt", data)
	if err != nil {
		return err
	}
	htmlBody, err := d.renderHTML("confirmation_request.html", data)
	if err != nil {
		return err
	}

	msg := &Message{
		From:     d.from,
		To:       []string{sub.Email},
		Subject:  fmt.Sprintf("[%s] Please confirm your invitation request", d.site.Name),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}

	if err := d.transport.Send(ctx, msg); err != nil {
		d.logger.Error("发送确认邮件失败",
			zap.String("to", sub.Email),
			zap.Error(err))
		return fmt.Errorf("send confirmation request: %w", err)
	}

	d.logger.Info("确认邮件已发送", zap.String("to", sub.Email))
	return nil
}

// receivedData 管理员通知邮件的模板数据
type receivedData struct {
	SiteName   string
	Email      string
	SubmitDate string
	IPAddress  string
}

// SendRequestReceived 通知管理员有新的已确认邀请
// 配置了 notify.to 时覆盖默认的管理员列表
func (d *Dispatcher) SendRequestReceived(ctx context.Context, record *domain.ContactRecord) error {
	recipients := d.recipients()
	if len(recipients) == 0 {
		d.logger.Warn("未配置通知收件人，跳过管理员通知",
			zap.String("email", record.Email))
		return nil
	}

	data := receivedData{
		SiteName:   d.site.Name,
		Email:      record.Email,
		SubmitDate: record.SubmitDate.Format("2006-01-02 15:04:05 MST"),
		IPAddress:  record.IPAddress,
	}

	textBody, err := d.renderText("request_received.txt", data)
	if err != nil {
		return err
	}

	msg := &Message{
		From:     d.from,
		To:       recipients,
		Subject:  fmt.Sprintf("[%s] New invitation request confirmed", d.site.Name),
		TextBody: textBody,
	}

	if err := d.transport.Send(ctx, msg); err != nil {
		d.logger.Error("发送管理员通知失败",
			zap.Strings("to", recipients),
			zap.Error(err))
		return fmt.Errorf("send request received: %w", err)
	}

	d.logger.Info("管理员通知已发送", zap.Strings("to", recipients))
	return nil
}

// recipients 计算管理员通知的收件人列表
func (d *Dispatcher) recipients() []string {
	if len(d.notify.To) > 0 {
		return d.notify.To
	}
	out := make([]string, 0, len(d.notify.Admins))
	for _, admin := range d.notify.Admins {
		out = append(out, (&mail.Address{Name: admin.Name, Address: admin.Address}).String())
	}
	return out
}

func (d *Dispatcher) renderText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := d.textTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (d *Dispatcher) renderHTML(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := d.htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
