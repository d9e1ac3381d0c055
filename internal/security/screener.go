package security

import (
	"regexp"
	"strings"

	"inviteme/backend/internal/signal"
)

// Screener 提交内容筛查器
//
// 在确认邮件发出之前拦截明显的垃圾提交：一次性邮箱域名、
// 可疑的本地部分模式。挂到信号总线上作为否决接收器使用。
type Screener struct {
	// 一次性邮箱域名
	disposableDomains map[string]struct{}

	// 可疑本地部分模式
	suspiciousPatterns []*regexp.Regexp
}

// NewScreener 创建带默认规则的筛查器
func NewScreener() *Screener {
	disposable := []string{
		"mailinator.com", "guerrillamail.com", "10minutemail.com",
		"tempmail.com", "throwaway.email", "yopmail.com",
		"trashmail.com", "sharklasers.com", "getnada.com",
	}

	domains := make(map[string]struct{}, len(disposable))
	for _, d := range disposable {
		domains[d] = struct{}{}
	}

	return &Screener{
		disposableDomains: domains,
		suspiciousPatterns: []*regexp.Regexp{
			// 长串纯数字的本地部分，典型的机器批量注册
			regexp.MustCompile(`^[0-9]{10,}@`),
			// 超长随机本地部分
			regexp.MustCompile(`^[a-z0-9]{40,}@`),
		},
	}
}

// AddDisposableDomain 追加一次性邮箱域名
func (s *Screener) AddDisposableDomain(domain string) {
	s.disposableDomains[strings.ToLower(domain)] = struct{}{}
}

// Screen 筛查邮箱地址，返回是否放行及拒绝原因
func (s *Screener) Screen(email string) (bool, string) {
	lower := strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(lower, "@")
	if at < 0 {
		return false, "malformed address"
	}

	if _, blocked := s.disposableDomains[lower[at+1:]]; blocked {
		return false, "disposable email domain"
	}

	for _, pattern := range s.suspiciousPatterns {
		if pattern.MatchString(lower) {
			return false, "suspicious address pattern"
		}
	}

	return true, ""
}

// Receiver 返回可订阅到信号总线的否决接收器
func (s *Screener) Receiver() signal.Receiver {
	return func(_ signal.Event, p signal.Payload) bool {
		ok, _ := s.Screen(p.Submission.Email)
		return ok
	}
}
