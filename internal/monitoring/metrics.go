// Package monitoring 提供 Prometheus 监控指标
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 邀请流程指标
	SubmissionsTotal       prometheus.Counter
	SubmissionsRejected    *prometheus.CounterVec
	ConfirmationEmailsSent prometheus.Counter
	ConfirmationsTotal     prometheus.Counter
	ReplaysTotal           prometheus.Counter
	NotificationsSent      prometheus.Counter

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP 请求指标
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inviteme_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inviteme_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		// 邀请流程指标
		SubmissionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_submissions_total",
				Help: "Total number of invitation form submissions",
			},
		),

		SubmissionsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inviteme_submissions_rejected_total",
				Help: "Total number of rejected submissions",
			},
			[]string{"reason"},
		),

		ConfirmationEmailsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_confirmation_emails_sent_total",
				Help: "Total number of confirmation emails sent",
			},
		),

		ConfirmationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_confirmations_total",
				Help: "Total number of confirmed invitation requests",
			},
		),

		ReplaysTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_confirmation_replays_total",
				Help: "Total number of replayed confirmation links",
			},
		),

		NotificationsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_admin_notifications_sent_total",
				Help: "Total number of admin notification emails sent",
			},
		),

		// 错误指标
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inviteme_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "inviteme_panics_total",
				Help: "Total number of panics",
			},
		),

		// 限流指标
		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inviteme_rate_limit_blocks_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmission 记录表单提交
func (m *Metrics) RecordSubmission() {
	m.SubmissionsTotal.Inc()
}

// RecordSubmissionRejected 记录被拒绝的提交
func (m *Metrics) RecordSubmissionRejected(reason string) {
	m.SubmissionsRejected.WithLabelValues(reason).Inc()
}

// RecordConfirmationEmailSent 记录确认邮件发送
func (m *Metrics) RecordConfirmationEmailSent() {
	m.ConfirmationEmailsSent.Inc()
}

// RecordConfirmation 记录完成确认
func (m *Metrics) RecordConfirmation() {
	m.ConfirmationsTotal.Inc()
}

// RecordReplay 记录被重放的确认链接
func (m *Metrics) RecordReplay() {
	m.ReplaysTotal.Inc()
}

// RecordNotificationSent 记录管理员通知发送
func (m *Metrics) RecordNotificationSent() {
	m.NotificationsSent.Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
