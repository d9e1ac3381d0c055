// Package service 封装邀请确认流程的业务逻辑
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"inviteme/backend/internal/config"
	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/form"
	"inviteme/backend/internal/monitoring"
	"inviteme/backend/internal/signal"
	"inviteme/backend/internal/storage"
	"inviteme/backend/internal/token"
)

var (
	// ErrNotFound 确认链接无效或已被使用
	// 两种情况刻意返回同一个错误，避免向探测者泄露令牌状态
	ErrNotFound = errors.New("confirmation not found")
)

// Mailer 邀请流程的邮件出口
type Mailer interface {
	SendConfirmationRequest(ctx context.Context, sub domain.Submission, confirmURL string) error
	SendRequestReceived(ctx context.Context, record *domain.ContactRecord) error
}

// InviteService 封装邀请请求的受理与确认。
type InviteService struct {
	codec   *token.Codec
	mailer  Mailer
	bus     *signal.Bus
	store   storage.ContactRepository
	metrics *monitoring.Metrics
	cfg     *config.Config
	logger  *zap.Logger
}

// NewInviteService 创建邀请业务服务。
// metrics 可为 nil（测试环境）
func NewInviteService(
	codec *token.Codec,
	m Mailer,
	bus *signal.Bus,
	store storage.ContactRepository,
	metrics *monitoring.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *InviteService {
	return &InviteService{
		codec:   codec,
		mailer:  m,
		bus:     bus,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// AcceptStatus 受理结果状态
type AcceptStatus int

const (
	// AcceptConfirmationSent 已向提交者发送确认邮件
	AcceptConfirmationSent AcceptStatus = iota
	// AcceptInvalidFields 字段校验失败，应重新渲染表单
	AcceptInvalidFields
	// AcceptDiscarded 提交被订阅者否决，静默丢弃
	AcceptDiscarded
)

// AcceptInput 定义受理表单提交所需的输入。
type AcceptInput struct {
	Form       map[string][]string // 原始提交数据
	RemoteAddr string
}

// AcceptResult 受理结果
type AcceptResult struct {
	Status      AcceptStatus
	FieldErrors map[string]string // Status 为 AcceptInvalidFields 时非空
	Email       string            // 提交的原始邮箱值，用于回填表单
}

// Accept 受理一次邀请表单提交。
//
// 安全信封校验失败时返回 *form.SecurityError，调用方应响应客户端错误；
// 受理成功不落库，仅签发令牌并发送确认邮件。
func (s *InviteService) Accept(ctx context.Context, input AcceptInput) (*AcceptResult, error) {
	if s.metrics != nil {
		s.metrics.RecordSubmission()
	}

	f := form.BindContactForm(s.cfg.Token.Secret, s.cfg.Token.Salt, s.cfg.Form.TimestampWindow, input.Form)

	if secErr := f.SecurityErrors(); secErr != nil {
		if s.metrics != nil {
			s.metrics.RecordSubmissionRejected("security")
		}
		s.logger.Warn("表单安全校验失败",
			zap.String("field", secErr.Field),
			zap.String("reason", secErr.Reason),
			zap.String("remote_addr", input.RemoteAddr))
		return nil, secErr
	}

	if !f.Valid() {
		if s.metrics != nil {
			s.metrics.RecordSubmissionRejected("fields")
		}
		var email string
		if values := input.Form[form.FieldEmail]; len(values) > 0 {
			email = values[0]
		}
		return &AcceptResult{
			Status:      AcceptInvalidFields,
			FieldErrors: f.FieldErrors(),
			Email:       email,
		}, nil
	}

	sub, err := f.GetInstanceData()
	if err != nil {
		return nil, fmt.Errorf("extract submission: %w", err)
	}

	payload := signal.Payload{Submission: sub, RemoteAddr: input.RemoteAddr}
	if !s.bus.Publish(signal.ConfirmationWillBeRequested, payload) {
		if s.metrics != nil {
			s.metrics.RecordSubmissionRejected("veto")
		}
		s.logger.Info("提交被订阅者否决",
			zap.String("email", sub.Email),
			zap.String("remote_addr", input.RemoteAddr))
		return &AcceptResult{Status: AcceptDiscarded}, nil
	}

	key, err := s.codec.Encode(sub, true)
	if err != nil {
		return nil, fmt.Errorf("encode confirmation token: %w", err)
	}
	confirmURL := fmt.Sprintf("%s/confirm/%s", s.cfg.Site.BaseURL, key)

	if err := s.mailer.SendConfirmationRequest(ctx, sub, confirmURL); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("mail", "invite")
		}
		return nil, fmt.Errorf("send confirmation request: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordConfirmationEmailSent()
	}

	s.bus.Publish(signal.ConfirmationRequested, payload)
	s.logger.Info("确认邮件已签发",
		zap.String("email", sub.Email),
		zap.String("remote_addr", input.RemoteAddr))

	return &AcceptResult{Status: AcceptConfirmationSent}, nil
}

// ConfirmStatus 确认结果状态
type ConfirmStatus int

const (
	// ConfirmAccepted 邀请已登记，管理员已收到通知
	ConfirmAccepted ConfirmStatus = iota
	// ConfirmDiscarded 确认被订阅者否决，静默丢弃
	ConfirmDiscarded
)

// ConfirmResult 确认结果
type ConfirmResult struct {
	Status ConfirmStatus
	Record *domain.ContactRecord
}

// Confirm 处理确认链接访问。
//
// 令牌签名无效、格式损坏、或对应记录已登记时一律返回 ErrNotFound，
// 重复点击同一链接与伪造链接在响应上不可区分。
func (s *InviteService) Confirm(ctx context.Context, key, remoteAddr string) (*ConfirmResult, error) {
	sub, err := s.codec.Decode(key)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSubmissionRejected("bad_token")
		}
		s.logger.Warn("确认令牌解码失败",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err))
		return nil, ErrNotFound
	}

	exists, err := s.store.ContactExists(sub.Email, sub.SubmitDate)
	if err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	if exists {
		if s.metrics != nil {
			s.metrics.RecordReplay()
		}
		s.logger.Info("确认链接被重放",
			zap.String("email", sub.Email),
			zap.String("remote_addr", remoteAddr))
		return nil, ErrNotFound
	}

	payload := signal.Payload{Submission: sub, RemoteAddr: remoteAddr}
	if !s.bus.Publish(signal.ConfirmationReceived, payload) {
		s.logger.Info("确认被订阅者否决",
			zap.String("email", sub.Email),
			zap.String("remote_addr", remoteAddr))
		return &ConfirmResult{Status: ConfirmDiscarded}, nil
	}

	record := &domain.ContactRecord{
		Email:      sub.Email,
		Site:       s.cfg.Site.Name,
		SubmitDate: sub.SubmitDate,
		IPAddress:  remoteAddr,
	}
	if err := s.store.CreateContact(record); err != nil {
		if errors.Is(err, storage.ErrContactExists) {
			// 并发确认输掉竞争，等同重放
			if s.metrics != nil {
				s.metrics.RecordReplay()
			}
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordConfirmation()
	}
	s.logger.Info("邀请已登记",
		zap.String("email", record.Email),
		zap.String("remote_addr", remoteAddr))

	// 通知失败不回滚登记，链接不能因此变成可重试
	if err := s.mailer.SendRequestReceived(ctx, record); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("mail", "notify")
		}
		s.logger.Error("管理员通知发送失败",
			zap.String("email", record.Email),
			zap.Error(err))
	} else if s.metrics != nil {
		s.metrics.RecordNotificationSent()
	}

	return &ConfirmResult{Status: ConfirmAccepted, Record: record}, nil
}

// NewForm 生成带全新安全信封的空白表单（用于 GET 渲染）。
func (s *InviteService) NewForm() *form.ContactForm {
	return form.NewContactForm(s.cfg.Token.Secret, s.cfg.Token.Salt, s.cfg.Form.TimestampWindow, nil)
}
